package types

import (
	"context"
	"fmt"
)

// Condition is a per-item filter: Match reports whether the item passes.
type Condition[T any] interface {
	fmt.Stringer
	Match(context.Context, T) bool
}

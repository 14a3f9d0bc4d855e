package logger

import (
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
)

type Level = logger.Level

const (
	LevelUndefined = logger.LevelUndefined
	LevelFatal     = logger.LevelFatal
	LevelPanic     = logger.LevelPanic
	LevelError     = logger.LevelError
	LevelWarning   = logger.LevelWarning
	LevelInfo      = logger.LevelInfo
	LevelDebug     = logger.LevelDebug
	LevelTrace     = logger.LevelTrace
)

// LevelFromString parses the names accepted by the --log-level flag
// ("warning", "debug", ...).
func LevelFromString(s string) (Level, error) {
	var l Level
	if err := l.Set(s); err != nil {
		return LevelUndefined, fmt.Errorf("unable to parse log level %q: %w", s, err)
	}
	return l, nil
}

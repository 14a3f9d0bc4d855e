package types

type Decision bool

const (
	DecisionKeep = Decision(true)
	DecisionDrop = Decision(false)
)

func (d Decision) IsKeep() bool {
	return d == DecisionKeep
}

func (d Decision) String() string {
	if d {
		return "keep"
	}
	return "drop"
}

package table

// Decision is the outcome of testing a rule's columns against a table.
type Decision int

const (
	Skip Decision = iota
	Evaluate
)

func (d Decision) String() string {
	if d == Evaluate {
		return "evaluate"
	}
	return "skip"
}

// Decide returns Evaluate only when every column is present.
func (t *Table) Decide(columns ...string) Decision {
	for _, c := range columns {
		if !t.Has(c) {
			return Skip
		}
	}
	return Evaluate
}

// DecideAny returns Evaluate when at least one column is present.
func (t *Table) DecideAny(columns ...string) Decision {
	for _, c := range columns {
		if t.Has(c) {
			return Evaluate
		}
	}
	return Skip
}

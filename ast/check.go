package ast

// Check validates a parsed tree without modifying it.
type Check interface {
	Name() string
	Check(n Node) error
}

// CheckChain runs checks in order, stopping at the first error.
type CheckChain []Check

// Run executes each check in sequence. Returns nil if all pass.
func (cc CheckChain) Run(n Node) error {
	for _, c := range cc {
		if err := c.Check(n); err != nil {
			return err
		}
	}
	return nil
}

package schedule

// WindowMode controls how the effective date window is derived when a
// schedule fires.
type WindowMode string

const (
	// WindowRolling recomputes [fire − lookback, fire] on every fire.
	WindowRolling WindowMode = "rolling"
	// WindowFixed keeps a constant window anchored at schedule creation.
	WindowFixed WindowMode = "fixed"
)

func (m WindowMode) Valid() bool {
	return m == WindowRolling || m == WindowFixed
}

package types

// StrategyName identifies one of the full-table fetch techniques.
type StrategyName string

const (
	// StrategyMapped maps each aliased row onto a Customer by column name
	StrategyMapped StrategyName = "mapped"

	// StrategyTuple builds each Customer by hand from the positional column tuple
	StrategyTuple StrategyName = "tuple"

	// StrategyRepository loads every entity through the tracked session repository
	StrategyRepository StrategyName = "repository"

	// StrategyStateless streams rows through a detached, forward-only cursor
	StrategyStateless StrategyName = "stateless"
)

// AllStrategies lists every strategy in the order they are benchmarked by default.
func AllStrategies() []StrategyName {
	return []StrategyName{
		StrategyRepository,
		StrategyTuple,
		StrategyMapped,
		StrategyStateless,
	}
}

// Label returns the human-readable report label for the strategy.
func (s StrategyName) Label() string {
	switch s {
	case StrategyMapped:
		return "Mapped projection"
	case StrategyTuple:
		return "Raw tuple"
	case StrategyRepository:
		return "Repository findAll"
	case StrategyStateless:
		return "Stateless session"
	default:
		return string(s)
	}
}

// Valid reports whether s names a known strategy.
func (s StrategyName) Valid() bool {
	for _, known := range AllStrategies() {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStrategy converts a string into a StrategyName.
func ParseStrategy(s string) (StrategyName, error) {
	name := StrategyName(s)
	if !name.Valid() {
		return "", ErrUnknownStrategy
	}
	return name, nil
}

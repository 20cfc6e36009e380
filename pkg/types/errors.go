package types

import "errors"

var (
	// ErrUnknownStrategy is returned when a strategy name is not one of AllStrategies
	ErrUnknownStrategy = errors.New("unknown strategy")
)

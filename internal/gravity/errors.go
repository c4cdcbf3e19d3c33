package gravity

import "errors"

var (
	// ErrEngineUnavailable is returned by an EngineFactory that cannot
	// build a world. Trigger treats it as a silent no-op.
	ErrEngineUnavailable = errors.New("gravity: physics engine unavailable")

	ErrNoSession = errors.New("gravity: no active session")

	ErrInvalidConfig = errors.New("gravity: invalid configuration")
)

package helicopter

import "errors"

var (
	// ErrEngineUnavailable indicates the native dynamics engine could not
	// be loaded, usually because the binary was built without it.
	ErrEngineUnavailable = errors.New("helicopter: dynamics engine unavailable")

	// ErrSchemaMismatch indicates the engine's observation vector does
	// not have the layout the environment was built for.
	ErrSchemaMismatch = errors.New("helicopter: engine observation schema mismatch")

	// ErrInvalidAction indicates an action of the wrong dimension.
	ErrInvalidAction = errors.New("helicopter: invalid action")

	// ErrInvalidTarget indicates a task target which does not fit the
	// observation schema.
	ErrInvalidTarget = errors.New("helicopter: invalid task target")

	// ErrUnknownName indicates a lookup of a name the engine does not
	// know.
	ErrUnknownName = errors.New("helicopter: unknown name")

	// ErrNoRenderer indicates Render was called on an environment
	// without a renderer.
	ErrNoRenderer = errors.New("helicopter: no renderer")
)

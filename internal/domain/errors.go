package domain

import "errors"

var (
	// ErrInvalidArgument signals malformed or missing required input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAPIUsage signals a well-formed request the engine or client cannot express.
	ErrAPIUsage = errors.New("invalid api usage")
	// ErrInvalidState signals an operation on a cursor outside its legal state.
	ErrInvalidState = errors.New("invalid state")
	// ErrNoSuchElement signals iteration past the last available element.
	ErrNoSuchElement = errors.New("no such element")
	// ErrUnsupported signals an operation the type never supports.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrUpstream signals a failure reported by the search engine.
	ErrUpstream = errors.New("search engine error")
)

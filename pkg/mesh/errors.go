package mesh

import "errors"

var (
	// ErrInvalidResolution is returned when uSteps or vSteps is below 1.
	ErrInvalidResolution = errors.New("invalid tessellation resolution")
	// ErrTooManyVertices is returned when the vertex count does not fit the index type.
	ErrTooManyVertices = errors.New("too many vertices")
	// ErrBufferOverflow is returned when a write exceeds a buffer's fixed capacity.
	ErrBufferOverflow = errors.New("buffer overflow")
	// ErrBufferIncomplete is returned when a buffer is collected before it is full.
	ErrBufferIncomplete = errors.New("buffer incomplete")
	// ErrNonFinitePosition is returned when the equation yields NaN or Inf.
	ErrNonFinitePosition = errors.New("non-finite surface position")
	// ErrIndexRange is returned when an index references a missing vertex.
	ErrIndexRange = errors.New("index out of range")
	// ErrBufferLength is returned when buffer lengths disagree with the resolution.
	ErrBufferLength = errors.New("buffer length mismatch")
	// ErrNotUnit is returned when a normal or tangent is neither unit length nor zero.
	ErrNotUnit = errors.New("vector not unit length")
)

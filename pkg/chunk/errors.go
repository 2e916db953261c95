package chunk

import "errors"

var (
	ErrMalformedContainer = errors.New("malformed chunk container")
	ErrNotChunk           = errors.New("buffer is not a chunk")
)

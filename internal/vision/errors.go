package vision

import "errors"

var (
	ErrUnavailable     = errors.New("vision service unavailable")
	ErrInvalidResponse = errors.New("invalid response from vision service")
)

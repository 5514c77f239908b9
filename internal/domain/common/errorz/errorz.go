package errorz

import "errors"

var (
	ErrExportNotFound = errors.New("export not found")
	ErrInvalidFormat  = errors.New("invalid export format")
	ErrNoSinks        = errors.New("no export sinks configured")
	ErrCacheMiss      = errors.New("cache miss")
	ErrInvalidRequest = errors.New("invalid render request")
)

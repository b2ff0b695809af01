package engine

import "errors"

var (
	ErrCloseExceedsOpen = errors.New("closing more quantity than is open")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNoData           = errors.New("no data available")
)

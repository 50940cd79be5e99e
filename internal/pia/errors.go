package pia

import "errors"

var (
	errEmptySelection = errors.New("no bytes returned for filename")
	errInvalidRange   = errors.New("invalid save range")
)

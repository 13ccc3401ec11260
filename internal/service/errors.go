package service

import "errors"

// ErrInvalidInput marks a request the caller must fix before retrying
var ErrInvalidInput = errors.New("invalid input")

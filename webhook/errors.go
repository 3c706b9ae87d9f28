package webhook

import "errors"

var (
	ErrNotFound     = errors.New("webhook not found")
	ErrInvalidInput = errors.New("invalid input")
)

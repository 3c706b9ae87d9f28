package lead

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("lead not found")
	ErrInvalidInput = errors.New("invalid input")

	ErrPhoneAndSourceRequired = fmt.Errorf("%w: phone and source are required", ErrInvalidInput)
)

package cli

import (
	"errors"
	"fmt"
)

// usageError marks bad flags or configuration, as opposed to failures
// talking to the API.
type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// IsUsageError reports whether err was caused by invalid input.
func IsUsageError(err error) bool {
	var u usageError
	return errors.As(err, &u)
}

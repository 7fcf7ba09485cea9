package utils

import (
	"fmt"

	"github.com/pkg/errors"
)

// NewConfigValidationError returns an error specifying that there was an error validating the
// config at the given path.
func NewConfigValidationError(path string, err error) error {
	return errors.Wrapf(err, "error validating %q", path)
}

// NewConfigValidationFieldRequiredError returns an error specifying that the given field is
// required at the given path.
func NewConfigValidationFieldRequiredError(path, field string) error {
	return NewConfigValidationError(path, errors.Errorf("%q is required", field))
}

// FieldPath joins a config path and a field or index.
func FieldPath(path string, field interface{}) string {
	if path == "" {
		return fmt.Sprint(field)
	}
	return fmt.Sprintf("%s.%v", path, field)
}

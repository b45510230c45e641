package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// lookupErr turns a gorm miss into the given not-found sentinel.
func lookupErr(err error, notFound *Error, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return err
}

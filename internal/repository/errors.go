package repository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a row does not exist in the caller's agency
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a unique constraint rejects a write
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrForeignKey is returned when a referenced row is missing
	ErrForeignKey = errors.New("foreign key violation")
)

// translate maps gorm errors onto the repository sentinels
func translate(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Wrap(ErrDuplicateKey, msg)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return errors.Wrap(ErrForeignKey, msg)
	}
	return errors.Wrap(err, msg)
}

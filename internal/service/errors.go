package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrUnauthenticated indicates no viewer identity is attached to the request
	ErrUnauthenticated = errors.New("login required")

	// ErrForbidden indicates the viewer neither owns the resource nor holds admin override
	ErrForbidden = errors.New("no permission")

	// ErrNotFound indicates a referenced post, comment or parent does not exist
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates missing content/image or a malformed id
	ErrValidation = errors.New("invalid request")

	// ErrConflict indicates a concurrent write won the race
	ErrConflict = errors.New("conflict")

	// ErrInternal indicates the store is unavailable or failed unexpectedly
	ErrInternal = errors.New("internal error")
)

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsForbidden(err error) bool  { return errors.Is(err, ErrForbidden) }
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }

func IsUnauthenticated(err error) bool { return errors.Is(err, ErrUnauthenticated) }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

// storeErr 把存储层错误归入错误分类；记录不存在映射为 NotFound，其余为 Internal
func storeErr(op string, err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what)
	}
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}

package usecase

import (
	"errors"
	"fmt"

	chat "go-chatline/internal/pkg/chat/application/domain"
)

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = fmt.Errorf("chat use case persistence error")

// storeErr keeps domain lookup failures (not found) recognizable and wraps
// everything else as ErrPersistence.
func storeErr(err error) error {
	if errors.Is(err, chat.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

func required(field string) error {
	return fmt.Errorf("%w: %s is required", chat.ErrMalformed, field)
}

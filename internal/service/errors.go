// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"solo-rising/internal/pkg/lock"
	"solo-rising/internal/repository"
)

// Service errors. Validation errors are returned before anything is written.
var (
	ErrLedgerUnavailable = errors.New("ledger temporarily unavailable, try again")
	ErrInvalidWorkout    = errors.New("invalid workout")
	ErrInvalidCharacter  = errors.New("unknown character")
	ErrInvalidProfile    = errors.New("invalid profile")
	ErrDailyTaskLimit    = errors.New("daily task limit reached")
	ErrItemNotFound      = errors.New("store item not found")
	ErrItemOwned         = errors.New("item already owned")
	ErrItemUnavailable   = errors.New("item not available for your character")
	ErrEmptyMessage      = errors.New("message is required")
	ErrMessageTooLong    = errors.New("message is too long")
	ErrChatUnavailable   = errors.New("chat provider failed")
)

// domainErrors pass through ledgerErr untouched.
var domainErrors = []error{
	ErrInvalidWorkout,
	ErrInvalidCharacter,
	ErrInvalidProfile,
	ErrDailyTaskLimit,
	ErrItemNotFound,
	ErrItemOwned,
	ErrItemUnavailable,
	repository.ErrUserNotFound,
	repository.ErrInsufficientCoins,
	repository.ErrCharacterAlreadySet,
	repository.ErrTaskNotFound,
	repository.ErrTaskCompleted,
	lock.ErrLockTimeout,
	context.Canceled,
	context.DeadlineExceeded,
}

// ledgerErr keeps domain errors and collapses everything else into
// ErrLedgerUnavailable after logging the cause.
func ledgerErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range domainErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	log.Error().Err(err).Str("op", op).Msg("Ledger operation failed")
	return fmt.Errorf("%w: %s", ErrLedgerUnavailable, op)
}

// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Common errors for repository operations.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientCoins   = errors.New("insufficient coins")
	ErrCharacterAlreadySet = errors.New("character already chosen")
	ErrTaskNotFound        = errors.New("task not found")
	ErrTaskCompleted       = errors.New("task already completed")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every repository
// can run standalone or inside a caller's transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

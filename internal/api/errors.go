package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"solo-rising/internal/pkg/lock"
	"solo-rising/internal/repository"
	"solo-rising/internal/scoring"
	"solo-rising/internal/service"
)

var (
	errForbidden  = errors.New("admin only")
	errBadRequest = errors.New("invalid request body")
	errBadParam   = errors.New("invalid parameter")
)

var statusTable = []struct {
	err    error
	status int
}{
	{errMissingToken, http.StatusUnauthorized},
	{errInvalidToken, http.StatusUnauthorized},
	{errForbidden, http.StatusForbidden},

	{errBadRequest, http.StatusBadRequest},
	{errBadParam, http.StatusBadRequest},
	{service.ErrInvalidWorkout, http.StatusBadRequest},
	{service.ErrInvalidCharacter, http.StatusBadRequest},
	{service.ErrInvalidProfile, http.StatusBadRequest},
	{service.ErrEmptyMessage, http.StatusBadRequest},
	{service.ErrMessageTooLong, http.StatusBadRequest},
	{service.ErrItemUnavailable, http.StatusBadRequest},
	{scoring.ErrEmptyExercise, http.StatusBadRequest},
	{scoring.ErrInvalidDuration, http.StatusBadRequest},
	{scoring.ErrInvalidReps, http.StatusBadRequest},

	{repository.ErrUserNotFound, http.StatusNotFound},
	{repository.ErrTaskNotFound, http.StatusNotFound},
	{service.ErrItemNotFound, http.StatusNotFound},

	{repository.ErrCharacterAlreadySet, http.StatusConflict},
	{repository.ErrInsufficientCoins, http.StatusConflict},
	{repository.ErrTaskCompleted, http.StatusConflict},
	{service.ErrDailyTaskLimit, http.StatusConflict},
	{service.ErrItemOwned, http.StatusConflict},

	{lock.ErrLockTimeout, http.StatusLocked},
	{service.ErrChatUnavailable, http.StatusBadGateway},
	{service.ErrLedgerUnavailable, http.StatusServiceUnavailable},
	{context.DeadlineExceeded, http.StatusServiceUnavailable},
}

// statusFor maps an error to its HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	for _, e := range statusTable {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled error")
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

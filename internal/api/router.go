// Package api exposes the ledger over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"solo-rising/internal/model"
	"solo-rising/internal/scoring"
	"solo-rising/internal/service"
	"solo-rising/internal/shop"
)

// Profiles manages the caller's ledger row.
type Profiles interface {
	EnsureUser(ctx context.Context, userID int64, warriorName, country string) (*model.User, bool, error)
	GetLedger(ctx context.Context, userID int64) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int64, warriorName, country string) (*model.User, error)
	SetCharacter(ctx context.Context, userID int64, variant string) (*model.User, error)
	LinkTelegram(ctx context.Context, userID, chatID int64) (*model.User, error)
	History(ctx context.Context, userID int64, limit int) ([]*model.LedgerEntry, error)
}

// Workouts logs workouts.
type Workouts interface {
	Log(ctx context.Context, userID int64, in service.WorkoutInput) (*service.WorkoutResult, error)
	Recent(ctx context.Context, userID int64, limit int) ([]*model.Workout, error)
	Exercises() []scoring.Exercise
}

// Rewards exposes the reward catalog and unlocker.
type Rewards interface {
	ListForUser(ctx context.Context, userID int64) ([]model.UnlockedReward, error)
	Check(ctx context.Context, userID int64) ([]service.Unlock, error)
	Notifications(ctx context.Context, userID int64) ([]service.Unlock, error)
}

// Rankings serves leaderboards.
type Rankings interface {
	GetTopUsers(ctx context.Context, country string, limit int) ([]*model.User, error)
	GetDailyEarners(ctx context.Context, limit int) ([]*model.DailyRank, error)
}

// Tasks manages scheduled tasks.
type Tasks interface {
	Create(ctx context.Context, userID int64, in service.TaskInput) (*model.ScheduledTask, error)
	List(ctx context.Context, userID int64, limit int) ([]*model.ScheduledTask, error)
	Complete(ctx context.Context, userID, taskID int64) (*service.WorkoutResult, error)
}

// Store sells cosmetic items for coins.
type Store interface {
	Items() []shop.ItemConfig
	Purchase(ctx context.Context, userID int64, itemType shop.ItemType) (*service.Purchase, error)
	Inventory(ctx context.Context, userID int64) ([]model.InventoryItem, error)
}

// Chat answers coaching messages.
type Chat interface {
	Reply(ctx context.Context, userID int64, message, character string) (string, error)
}

// Sweeper runs the streak sweep.
type Sweeper interface {
	Run(ctx context.Context, now time.Time) (*service.SweepResult, error)
}

// Stream attaches a websocket to a user's notification stream.
type Stream interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID int64)
}

// Dependencies holds everything the handlers call into. Chat and Stream may
// be nil, which disables their routes. Health, when set, backs /healthz.
type Dependencies struct {
	Auth     *Authenticator
	Health   func(ctx context.Context) error
	Profiles Profiles
	Workouts Workouts
	Rewards  Rewards
	Rankings Rankings
	Tasks    Tasks
	Store    Store
	Chat     Chat
	Sweeper  Sweeper
	Stream   Stream
}

// Handler serves the HTTP API.
type Handler struct {
	deps *Dependencies
	now  func() time.Time
}

// NewRouter builds the router with all routes and middleware attached.
func NewRouter(deps *Dependencies) *mux.Router {
	h := &Handler{deps: deps, now: time.Now}

	r := mux.NewRouter()
	r.Use(RecoveryMiddleware, RequestIDMiddleware, LoggingMiddleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	if deps.Stream != nil {
		r.Handle("/ws", deps.Auth.middleware(true)(http.HandlerFunc(h.stream))).Methods(http.MethodGet)
	}

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(deps.Auth.Middleware)

	v1.HandleFunc("/profile", h.ensureProfile).Methods(http.MethodPost)
	v1.HandleFunc("/profile", h.getProfile).Methods(http.MethodGet)
	v1.HandleFunc("/profile", h.updateProfile).Methods(http.MethodPut)
	v1.HandleFunc("/profile/character", h.setCharacter).Methods(http.MethodPut)
	v1.HandleFunc("/profile/telegram", h.linkTelegram).Methods(http.MethodPut)
	v1.HandleFunc("/ledger", h.history).Methods(http.MethodGet)

	v1.HandleFunc("/workouts", h.logWorkout).Methods(http.MethodPost)
	v1.HandleFunc("/workouts", h.recentWorkouts).Methods(http.MethodGet)
	v1.HandleFunc("/exercises", h.exercises).Methods(http.MethodGet)

	v1.HandleFunc("/rewards", h.rewards).Methods(http.MethodGet)
	v1.HandleFunc("/rewards/check", h.checkRewards).Methods(http.MethodPost)
	v1.HandleFunc("/notifications", h.notifications).Methods(http.MethodGet)

	v1.HandleFunc("/leaderboard", h.leaderboard).Methods(http.MethodGet)
	v1.HandleFunc("/leaderboard/daily", h.dailyLeaderboard).Methods(http.MethodGet)

	v1.HandleFunc("/tasks", h.createTask).Methods(http.MethodPost)
	v1.HandleFunc("/tasks", h.listTasks).Methods(http.MethodGet)
	v1.HandleFunc("/tasks/{id:[0-9]+}/complete", h.completeTask).Methods(http.MethodPost)

	v1.HandleFunc("/store", h.storeItems).Methods(http.MethodGet)
	v1.HandleFunc("/store/purchase", h.purchase).Methods(http.MethodPost)
	v1.HandleFunc("/inventory", h.inventory).Methods(http.MethodGet)

	if deps.Chat != nil {
		v1.HandleFunc("/chat", h.chat).Methods(http.MethodPost)
	}

	admin := v1.PathPrefix("/admin").Subrouter()
	admin.Use(RequireAdmin)
	admin.HandleFunc("/sweep", h.sweep).Methods(http.MethodPost)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.deps.Health != nil {
		if err := h.deps.Health(r.Context()); err != nil {
			log.Warn().Err(err).Msg("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	h.deps.Stream.ServeWS(w, r, UserID(r.Context()))
}

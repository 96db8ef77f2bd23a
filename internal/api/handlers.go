package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"solo-rising/internal/service"
	"solo-rising/internal/shop"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxBodyBytes    = 64 << 10
)

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// pageSize reads ?limit=, defaulting to defaultPageSize and capping at
// maxPageSize.
func pageSize(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultPageSize, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", errBadParam)
	}
	if n > maxPageSize {
		n = maxPageSize
	}
	return n, nil
}

// Profile

type profileRequest struct {
	WarriorName string `json:"warrior_name"`
	Country     string `json:"country"`
}

func (h *Handler) ensureProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, created, err := h.deps.Profiles.EnsureUser(r.Context(), UserID(r.Context()), req.WarriorName, req.Country)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, user)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.deps.Profiles.GetLedger(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.deps.Profiles.UpdateProfile(r.Context(), UserID(r.Context()), req.WarriorName, req.Country)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) setCharacter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CharacterType string `json:"character_type"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.deps.Profiles.SetCharacter(r.Context(), UserID(r.Context()), req.CharacterType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) linkTelegram(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChatID int64 `json:"chat_id"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.deps.Profiles.LinkTelegram(r.Context(), UserID(r.Context()), req.ChatID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	limit, err := pageSize(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := h.deps.Profiles.History(r.Context(), UserID(r.Context()), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// Workouts

func (h *Handler) logWorkout(w http.ResponseWriter, r *http.Request) {
	var in service.WorkoutInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.deps.Workouts.Log(r.Context(), UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) recentWorkouts(w http.ResponseWriter, r *http.Request) {
	limit, err := pageSize(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	workouts, err := h.deps.Workouts.Recent(r.Context(), UserID(r.Context()), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workouts": workouts})
}

type exerciseView struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Kind        string `json:"kind"`
	Rule        string `json:"rule"`
}

func (h *Handler) exercises(w http.ResponseWriter, _ *http.Request) {
	list := h.deps.Workouts.Exercises()
	views := make([]exerciseView, 0, len(list))
	for _, e := range list {
		views = append(views, exerciseView{
			Key:         e.Key,
			DisplayName: e.DisplayName,
			Kind:        string(e.Rule.Kind()),
			Rule:        e.Rule.Describe(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"exercises": views})
}

// Rewards

func (h *Handler) rewards(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Rewards.ListForUser(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rewards": list})
}

func (h *Handler) checkRewards(w http.ResponseWriter, r *http.Request) {
	unlocked, err := h.deps.Rewards.Check(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if unlocked == nil {
		unlocked = []service.Unlock{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"unlocked": unlocked})
}

func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	pending, err := h.deps.Rewards.Notifications(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": pending})
}

// Leaderboards

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := pageSize(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	users, err := h.deps.Rankings.GetTopUsers(r.Context(), r.URL.Query().Get("country"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) dailyLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := pageSize(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ranks, err := h.deps.Rankings.GetDailyEarners(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ranks": ranks})
}

// Tasks

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var in service.TaskInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	task, err := h.deps.Tasks.Create(r.Context(), UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	limit, err := pageSize(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tasks, err := h.deps.Tasks.List(r.Context(), UserID(r.Context()), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *Handler) completeTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: task id", errBadParam))
		return
	}
	result, err := h.deps.Tasks.Complete(r.Context(), UserID(r.Context()), taskID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Store

func (h *Handler) storeItems(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": h.deps.Store.Items()})
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemType string `json:"item_type"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	purchase, err := h.deps.Store.Purchase(r.Context(), UserID(r.Context()), shop.ItemType(req.ItemType))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}

func (h *Handler) inventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.deps.Store.Inventory(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Chat

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message   string `json:"message"`
		Character string `json:"character"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reply, err := h.deps.Chat.Reply(r.Context(), UserID(r.Context()), req.Message, req.Character)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

// Admin

func (h *Handler) sweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.deps.Sweeper.Run(r.Context(), h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

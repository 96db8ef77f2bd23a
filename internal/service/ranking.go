package service

import (
	"context"
	"time"

	"solo-rising/internal/model"
	"solo-rising/internal/repository"
	"solo-rising/internal/streak"
)

// MaxLeaderboardSize caps leaderboard queries.
const MaxLeaderboardSize = 100

// RankingService handles leaderboards.
type RankingService struct {
	userRepo   *repository.UserRepository
	ledgerRepo *repository.LedgerRepository
	timezone   *time.Location
	now        func() time.Time
}

// NewRankingService creates a new RankingService instance.
func NewRankingService(
	userRepo *repository.UserRepository,
	ledgerRepo *repository.LedgerRepository,
	timezone *time.Location,
) *RankingService {
	if timezone == nil {
		timezone = time.UTC
	}
	return &RankingService{
		userRepo:   userRepo,
		ledgerRepo: ledgerRepo,
		timezone:   timezone,
		now:        time.Now,
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	if limit > MaxLeaderboardSize {
		return MaxLeaderboardSize
	}
	return limit
}

// GetTopUsers returns the users with the most points, optionally only from
// one country.
func (s *RankingService) GetTopUsers(ctx context.Context, country string, limit int) ([]*model.User, error) {
	users, err := s.userRepo.GetTopUsers(ctx, country, clampLimit(limit))
	if err != nil {
		return nil, ledgerErr("get leaderboard", err)
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}

// GetDailyEarners returns today's top earners from the ledger entries.
func (s *RankingService) GetDailyEarners(ctx context.Context, limit int) ([]*model.DailyRank, error) {
	return s.GetDailyEarnersForDate(ctx, s.now(), limit)
}

// GetDailyEarnersForDate returns the top earners of the day containing date.
func (s *RankingService) GetDailyEarnersForDate(ctx context.Context, date time.Time, limit int) ([]*model.DailyRank, error) {
	ranks, err := s.ledgerRepo.GetDailyEarners(ctx, streak.StartOfDay(date, s.timezone), clampLimit(limit))
	if err != nil {
		return nil, ledgerErr("get daily leaderboard", err)
	}
	if ranks == nil {
		ranks = []*model.DailyRank{}
	}
	return ranks, nil
}

// GetUserDailyPoints returns the user's net points for today.
func (s *RankingService) GetUserDailyPoints(ctx context.Context, userID int64) (int64, error) {
	points, err := s.ledgerRepo.GetUserDailyPoints(ctx, userID, streak.StartOfDay(s.now(), s.timezone))
	return points, ledgerErr("get daily points", err)
}

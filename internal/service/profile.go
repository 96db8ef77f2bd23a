package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"solo-rising/internal/cache"
	"solo-rising/internal/model"
	"solo-rising/internal/pkg/db"
	"solo-rising/internal/repository"
)

const (
	maxWarriorName = 64
	maxCountry     = 64
)

// ProfileService handles the user's ledger row and profile fields.
type ProfileService struct {
	pool       *pgxpool.Pool
	userRepo   *repository.UserRepository
	ledgerRepo *repository.LedgerRepository
	cache      cache.LedgerCache
}

// NewProfileService creates a new ProfileService instance.
func NewProfileService(
	pool *pgxpool.Pool,
	userRepo *repository.UserRepository,
	ledgerRepo *repository.LedgerRepository,
	ledgerCache cache.LedgerCache,
) *ProfileService {
	if ledgerCache == nil {
		ledgerCache = cache.Nop{}
	}
	return &ProfileService{
		pool:       pool,
		userRepo:   userRepo,
		ledgerRepo: ledgerRepo,
		cache:      ledgerCache,
	}
}

func validateProfile(warriorName, country string) (string, string, error) {
	warriorName = strings.TrimSpace(warriorName)
	country = strings.ToUpper(strings.TrimSpace(country))
	if utf8.RuneCountInString(warriorName) > maxWarriorName {
		return "", "", fmt.Errorf("%w: warrior name longer than %d characters", ErrInvalidProfile, maxWarriorName)
	}
	if utf8.RuneCountInString(country) > maxCountry {
		return "", "", fmt.Errorf("%w: country longer than %d characters", ErrInvalidProfile, maxCountry)
	}
	return warriorName, country, nil
}

// EnsureUser ensures a ledger row exists, creating one with zero balances
// if necessary. Returns the user and whether it was newly created.
func (s *ProfileService) EnsureUser(ctx context.Context, userID int64, warriorName, country string) (*model.User, bool, error) {
	warriorName, country, err := validateProfile(warriorName, country)
	if err != nil {
		return nil, false, err
	}

	user, created, err := s.userRepo.GetOrCreate(ctx, userID, warriorName, country)
	if err != nil {
		return nil, false, ledgerErr("ensure user", err)
	}
	if created {
		log.Info().Int64("user_id", userID).Str("warrior_name", warriorName).Msg("Ledger created")
	}
	s.cache.Set(ctx, user)
	return user, created, nil
}

// GetLedger returns the user's ledger, from cache when possible.
func (s *ProfileService) GetLedger(ctx context.Context, userID int64) (*model.User, error) {
	if user, ok := s.cache.Get(ctx, userID); ok {
		return user, nil
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ledgerErr("get ledger", err)
	}
	s.cache.Set(ctx, user)
	return user, nil
}

// GetByTelegramChat returns the user linked to a Telegram chat.
func (s *ProfileService) GetByTelegramChat(ctx context.Context, chatID int64) (*model.User, error) {
	user, err := s.userRepo.GetByTelegramChat(ctx, chatID)
	return user, ledgerErr("get user by chat", err)
}

// UpdateProfile changes the warrior name and country.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int64, warriorName, country string) (*model.User, error) {
	warriorName, country, err := validateProfile(warriorName, country)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.UpdateProfile(ctx, userID, warriorName, country)
	if err != nil {
		return nil, ledgerErr("update profile", err)
	}
	s.cache.Set(ctx, user)
	return user, nil
}

// SetCharacter picks the user's persona. It can only be done once.
func (s *ProfileService) SetCharacter(ctx context.Context, userID int64, variant string) (*model.User, error) {
	character, ok := model.LookupCharacter(variant)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCharacter, variant)
	}
	user, err := s.userRepo.SetCharacter(ctx, userID, character.Type)
	if err != nil {
		return nil, ledgerErr("set character", err)
	}
	s.cache.Set(ctx, user)
	return user, nil
}

// LinkTelegram routes the user's notifications to a Telegram chat. A chat
// belongs to at most one user; linking moves it.
func (s *ProfileService) LinkTelegram(ctx context.Context, userID, chatID int64) (*model.User, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("%w: telegram chat id is required", ErrInvalidProfile)
	}

	var (
		user     *model.User
		previous int64
	)
	err := db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		users := s.userRepo.WithTx(tx)
		if owner, err := users.GetByTelegramChat(ctx, chatID); err == nil && owner.ID != userID {
			previous = owner.ID
		}
		var err error
		user, err = users.LinkTelegram(ctx, userID, chatID)
		return err
	})
	if err != nil {
		return nil, ledgerErr("link telegram", err)
	}
	if previous != 0 {
		// the chat id was cleared on the previous owner's row
		if owner, err := s.userRepo.GetByID(ctx, previous); err == nil {
			s.cache.Set(ctx, owner)
		} else {
			s.cache.Delete(ctx, previous)
		}
	}
	s.cache.Set(ctx, user)
	return user, nil
}

// History returns the user's latest ledger entries.
func (s *ProfileService) History(ctx context.Context, userID int64, limit int) ([]*model.LedgerEntry, error) {
	entries, err := s.ledgerRepo.GetByUserID(ctx, userID, limit)
	if err != nil {
		return nil, ledgerErr("get history", err)
	}
	if entries == nil {
		entries = []*model.LedgerEntry{}
	}
	return entries, nil
}

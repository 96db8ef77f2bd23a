package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"solo-rising/internal/cache"
	"solo-rising/internal/model"
	"solo-rising/internal/pkg/db"
	"solo-rising/internal/pkg/lock"
	"solo-rising/internal/repository"
	"solo-rising/internal/shop"
)

// Purchase is the outcome of buying one item.
type Purchase struct {
	Item     shop.ItemConfig `json:"item"`
	Quantity int             `json:"quantity"`
	User     *model.User     `json:"user"`
}

// StoreService sells cosmetic items for coins.
type StoreService struct {
	pool          *pgxpool.Pool
	userRepo      *repository.UserRepository
	ledgerRepo    *repository.LedgerRepository
	inventoryRepo *repository.InventoryRepository
	userLock      *lock.UserLock
	cache         cache.LedgerCache
	lockTimeout   time.Duration
}

// NewStoreService creates a new StoreService instance.
func NewStoreService(
	pool *pgxpool.Pool,
	userRepo *repository.UserRepository,
	ledgerRepo *repository.LedgerRepository,
	inventoryRepo *repository.InventoryRepository,
	userLock *lock.UserLock,
	ledgerCache cache.LedgerCache,
	lockTimeout time.Duration,
) *StoreService {
	if ledgerCache == nil {
		ledgerCache = cache.Nop{}
	}
	return &StoreService{
		pool:          pool,
		userRepo:      userRepo,
		ledgerRepo:    ledgerRepo,
		inventoryRepo: inventoryRepo,
		userLock:      userLock,
		cache:         ledgerCache,
		lockTimeout:   lockTimeout,
	}
}

// Items returns all store items.
func (s *StoreService) Items() []shop.ItemConfig {
	return shop.GetAllItems()
}

// Purchase buys one item. Coins are deducted with a guarded update, so the
// balance can never go negative.
func (s *StoreService) Purchase(ctx context.Context, userID int64, itemType shop.ItemType) (*Purchase, error) {
	item, ok := shop.GetItem(itemType)
	if !ok {
		return nil, ErrItemNotFound
	}

	result := &Purchase{Item: item}
	err := s.userLock.WithLockContext(ctx, userID, s.lockTimeout, func() error {
		err := db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
			users := s.userRepo.WithTx(tx)
			inventory := s.inventoryRepo.WithTx(tx)

			user, err := users.GetForUpdate(ctx, userID)
			if err != nil {
				return err
			}
			if !item.AvailableTo(user.CharacterType) {
				return ErrItemUnavailable
			}
			if !item.Stackable {
				owned, err := inventory.GetQuantity(ctx, userID, string(item.Type))
				if err != nil {
					return err
				}
				if owned > 0 {
					return ErrItemOwned
				}
			}

			if result.User, err = users.SpendCoins(ctx, userID, item.Price); err != nil {
				return err
			}
			desc := "Bought " + item.Name
			if _, err := s.ledgerRepo.WithTx(tx).Create(ctx, userID, 0, -item.Price, model.EntryStorePurchase, &desc); err != nil {
				return err
			}
			if err := inventory.AddItem(ctx, userID, string(item.Type), 1); err != nil {
				return err
			}
			result.Quantity, err = inventory.GetQuantity(ctx, userID, string(item.Type))
			return err
		})
		if err != nil {
			return err
		}
		s.cache.Set(ctx, result.User)
		return nil
	})
	if err != nil {
		return nil, ledgerErr("purchase item", err)
	}

	log.Info().
		Int64("user_id", userID).
		Str("item", string(item.Type)).
		Int64("price", item.Price).
		Int64("coins_left", result.User.Coins).
		Msg("Store purchase")
	return result, nil
}

// Inventory returns the items a user owns.
func (s *StoreService) Inventory(ctx context.Context, userID int64) ([]model.InventoryItem, error) {
	items, err := s.inventoryRepo.GetAllItems(ctx, userID)
	if err != nil {
		return nil, ledgerErr("get inventory", err)
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	return items, nil
}

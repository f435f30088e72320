package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-order-service/internal/models"
	"storefront-order-service/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Store keeps each user's pending cart in Redis as an ordered list of
// JSON-encoded line items. Order matters: the first cart item has first
// claim on stock during checkout.
type Store struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewStore connects to Redis and verifies the connection.
func NewStore(addr, password string, db int) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Store{rdb: rdb, logger: util.GetLogger()}, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.rdb.Close()
}

func cartKey(userID int64) string {
	return fmt.Sprintf("cart:%d", userID)
}

// Items returns the user's pending cart in cart order.
func (s *Store) Items(ctx context.Context, userID int64) ([]models.CartItem, error) {
	raw, err := s.rdb.LRange(ctx, cartKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	items := make([]models.CartItem, 0, len(raw))
	for _, entry := range raw {
		var item models.CartItem
		if err := json.Unmarshal([]byte(entry), &item); err != nil {
			s.logger.Error("Dropping unreadable cart entry",
				zap.Int64("user_id", userID),
				zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Add appends a line item to the end of the user's cart.
func (s *Store) Add(ctx context.Context, userID int64, item models.CartItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal cart item: %w", err)
	}
	if err := s.rdb.RPush(ctx, cartKey(userID), payload).Err(); err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

// Remove deletes every line for the given product from the user's cart,
// preserving the order of the remaining lines. Each matching line is
// removed with LREM, so lines added concurrently are never dropped.
// Marshaling is deterministic for CartItem, so the re-encoded line matches
// the stored one byte for byte.
func (s *Store) Remove(ctx context.Context, userID, productID int64) error {
	items, err := s.Items(ctx, userID)
	if err != nil {
		return err
	}

	for _, item := range items {
		if item.ProductID != productID {
			continue
		}
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal cart item: %w", err)
		}
		if err := s.rdb.LRem(ctx, cartKey(userID), 0, payload).Err(); err != nil {
			return fmt.Errorf("failed to remove cart item: %w", err)
		}
	}
	return nil
}

// Clear drops the user's entire pending cart.
func (s *Store) Clear(ctx context.Context, userID int64) error {
	return s.rdb.Del(ctx, cartKey(userID)).Err()
}

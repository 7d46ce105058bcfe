package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mensa_menu_bot/internal/domain/subscription"

	"github.com/lib/pq"
)

// Custom errors
var ErrSubscriptionNotFound = fmt.Errorf("subscription not found")
var ErrDuplicateSubscription = fmt.Errorf("subscription for this chat already exists")

const createSubscriptionsTable = `
CREATE TABLE IF NOT EXISTS subscriptions (
    chat_id       BIGINT PRIMARY KEY,
    notify_hour   SMALLINT NOT NULL,
    notify_minute SMALLINT NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type PostgresSubscriptionRepository struct {
	db *sql.DB
}

func NewPostgresSubscriptionRepository(db *sql.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

// EnsureSchema creates the subscriptions table when it does not exist yet.
func (r *PostgresSubscriptionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSubscriptionsTable); err != nil {
		return fmt.Errorf("error creating subscriptions table: %w", err)
	}
	return nil
}

func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	query := `INSERT INTO subscriptions (chat_id, notify_hour, notify_minute)
               VALUES ($1, $2, $3)
               RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, sub.ChatID, sub.NotifyHour, sub.NotifyMinute).Scan(&sub.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicateSubscription
		}
		return fmt.Errorf("error creating subscription: %w", err)
	}
	return nil
}

func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, chatID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE chat_id = $1`, chatID)
	if err != nil {
		return fmt.Errorf("error deleting subscription: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deleted subscription rows: %w", err)
	}
	if affected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *PostgresSubscriptionRepository) ListAll(ctx context.Context) ([]*subscription.Subscription, error) {
	query := `SELECT chat_id, notify_hour, notify_minute, created_at
               FROM subscriptions ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]*subscription.Subscription, 0)
	for rows.Next() {
		s := &subscription.Subscription{}
		if err := rows.Scan(&s.ChatID, &s.NotifyHour, &s.NotifyMinute, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning subscription: %w", err)
		}
		subs = append(subs, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}
	return subs, nil
}

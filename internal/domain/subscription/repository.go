package subscription

import "context"

// Repository defines the operations for persisting and retrieving
// Subscription entities. Subscriptions are the durable state of the
// notification scheduler and must survive process restarts.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Delete(ctx context.Context, chatID int64) error
	ListAll(ctx context.Context) ([]*Subscription, error)
}

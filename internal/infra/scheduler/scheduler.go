package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mensa_menu_bot/internal/domain/subscription"
	idb "mensa_menu_bot/internal/infra/database" // For ErrDuplicateSubscription / ErrSubscriptionNotFound

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Errors surfaced to the message handler, which turns them into the
// "already subscribed" / "never subscribed" replies.
var ErrAlreadyScheduled = fmt.Errorf("chat already has a scheduled delivery")
var ErrNotScheduled = fmt.Errorf("chat has no scheduled delivery")

// MenuDeliverer is what a firing trigger invokes.
type MenuDeliverer interface {
	DeliverMenu(ctx context.Context, chatID int64) error
}

const deliveryTimeout = 1 * time.Minute

// NotificationScheduler maintains one recurring weekday trigger per
// subscribed chat. The subscriptions themselves live in the database, so
// schedules survive restarts; the cron engine is rebuilt from them in Start.
type NotificationScheduler struct {
	cronEngine   *cron.Cron
	subRepo      subscription.Repository
	deliverer    MenuDeliverer
	logger       *logrus.Entry
	notifyHour   int
	notifyMinute int
	misfireGrace time.Duration
	now          func() time.Time

	mu      sync.Mutex
	entries map[int64]cron.EntryID
}

func NewNotificationScheduler(
	subRepo subscription.Repository,
	deliverer MenuDeliverer,
	logger *logrus.Entry,
	notifyHour int,
	notifyMinute int,
	misfireGrace time.Duration,
) *NotificationScheduler {
	return &NotificationScheduler{
		cronEngine:   cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		subRepo:      subRepo,
		deliverer:    deliverer,
		logger:       logger,
		notifyHour:   notifyHour,
		notifyMinute: notifyMinute,
		misfireGrace: misfireGrace,
		now:          time.Now,
		entries:      make(map[int64]cron.EntryID),
	}
}

// Start loads all persisted subscriptions, registers a trigger for each and
// starts the cron engine. A delivery whose trigger time passed within the
// misfire grace window while the process was down is fired immediately.
func (s *NotificationScheduler) Start(ctx context.Context) error {
	subs, err := s.subRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("loading persisted subscriptions: %w", err)
	}
	for _, sub := range subs {
		s.logger.WithField("chat_id", sub.ChatID).Info("Active job")
		if err := s.register(sub.ChatID); err != nil {
			return err
		}
	}
	s.cronEngine.Start()
	s.logger.WithField("jobs", len(subs)).Info("Notification scheduler started")

	s.catchUpMissed(ctx, subs)
	return nil
}

// Schedule persists a subscription for the chat and registers its trigger.
// Returns ErrAlreadyScheduled if the chat is subscribed already.
func (s *NotificationScheduler) Schedule(ctx context.Context, chatID int64) error {
	sub := &subscription.Subscription{
		ChatID:       chatID,
		NotifyHour:   s.notifyHour,
		NotifyMinute: s.notifyMinute,
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		if errors.Is(err, idb.ErrDuplicateSubscription) {
			return ErrAlreadyScheduled
		}
		return fmt.Errorf("persisting subscription for chat %d: %w", chatID, err)
	}
	if err := s.register(chatID); err != nil {
		return err
	}
	s.logger.WithField("chat_id", chatID).Info("Subscription scheduled")
	return nil
}

// Cancel removes the chat's subscription and deregisters its trigger.
// Returns ErrNotScheduled if the chat was never subscribed.
func (s *NotificationScheduler) Cancel(ctx context.Context, chatID int64) error {
	if err := s.subRepo.Delete(ctx, chatID); err != nil {
		if errors.Is(err, idb.ErrSubscriptionNotFound) {
			return ErrNotScheduled
		}
		return fmt.Errorf("removing subscription for chat %d: %w", chatID, err)
	}

	s.mu.Lock()
	if id, ok := s.entries[chatID]; ok {
		s.cronEngine.Remove(id)
		delete(s.entries, chatID)
	}
	s.mu.Unlock()

	s.logger.WithField("chat_id", chatID).Info("Subscription cancelled")
	return nil
}

// Jobs returns the chat IDs with a registered trigger, for diagnostics.
func (s *NotificationScheduler) Jobs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.entries))
	for chatID := range s.entries {
		ids = append(ids, chatID)
	}
	return ids
}

func (s *NotificationScheduler) register(chatID int64) error {
	// Weekday trigger; the kitchen is closed on weekends.
	spec := fmt.Sprintf("%d %d * * 1-5", s.notifyMinute, s.notifyHour)
	entryID, err := s.cronEngine.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		if err := s.deliverer.DeliverMenu(ctx, chatID); err != nil {
			s.logger.WithError(err).WithField("chat_id", chatID).Error("Scheduled menu delivery failed")
		}
	})
	if err != nil {
		return fmt.Errorf("adding cron entry for chat %d: %w", chatID, err)
	}

	s.mu.Lock()
	s.entries[chatID] = entryID
	s.mu.Unlock()
	return nil
}

// catchUpMissed fires deliveries whose trigger time passed no longer than
// the misfire grace ago. A restart shortly after the notification hour still
// delivers instead of silently skipping the day.
func (s *NotificationScheduler) catchUpMissed(ctx context.Context, subs []*subscription.Subscription) {
	now := s.now()
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return
	}
	trigger := time.Date(now.Year(), now.Month(), now.Day(), s.notifyHour, s.notifyMinute, 0, 0, now.Location())
	if now.Before(trigger) || now.Sub(trigger) > s.misfireGrace {
		return
	}
	for _, sub := range subs {
		s.logger.WithField("chat_id", sub.ChatID).Info("Delivering missed scheduled menu within misfire grace")
		if err := s.deliverer.DeliverMenu(ctx, sub.ChatID); err != nil {
			s.logger.WithError(err).WithField("chat_id", sub.ChatID).Error("Misfire catch-up delivery failed")
		}
	}
}

func (s *NotificationScheduler) Stop() {
	s.logger.Info("Stopping notification scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Notification scheduler gracefully stopped")
}

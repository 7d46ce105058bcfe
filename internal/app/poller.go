package app

import (
	"context"
	"fmt"
	"time"

	domainTelegram "mensa_menu_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// BatchHandler consumes one fetched batch of inbound messages.
type BatchHandler interface {
	HandleBatch(ctx context.Context, batch []domainTelegram.Message)
}

// UpdatePoller drives the inbound side: fetch the pending batch, hand it to
// the handler, pause, repeat. A failed cycle backs off for longer so a broken
// network does not turn into a tight error loop.
type UpdatePoller struct {
	updates      domainTelegram.UpdateSource
	handler      BatchHandler
	logger       *logrus.Entry
	pollInterval time.Duration
	errorBackoff time.Duration
}

func NewUpdatePoller(
	updates domainTelegram.UpdateSource,
	handler BatchHandler,
	logger *logrus.Entry,
	pollInterval time.Duration,
	errorBackoff time.Duration,
) *UpdatePoller {
	return &UpdatePoller{
		updates:      updates,
		handler:      handler,
		logger:       logger,
		pollInterval: pollInterval,
		errorBackoff: errorBackoff,
	}
}

// Run loops until ctx is cancelled. The stop check sits at the top of the
// cycle, so a batch in flight is always handled to completion before exit.
func (p *UpdatePoller) Run(ctx context.Context) {
	p.logger.Info("Update poller started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Update poller stopped")
			return
		default:
		}

		if err := p.cycle(ctx); err != nil {
			p.logger.WithError(err).Error("Poll cycle failed, backing off")
			p.pause(ctx, p.errorBackoff)
			continue
		}
		p.pause(ctx, p.pollInterval)
	}
}

func (p *UpdatePoller) cycle(ctx context.Context) error {
	batch, err := p.updates.FetchUpdates()
	if err != nil {
		return fmt.Errorf("fetching updates: %w", err)
	}
	p.handler.HandleBatch(ctx, batch)
	return nil
}

func (p *UpdatePoller) pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

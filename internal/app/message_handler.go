package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainTelegram "mensa_menu_bot/internal/domain/telegram"
	"mensa_menu_bot/internal/infra/scheduler" // For ErrAlreadyScheduled / ErrNotScheduled

	"github.com/sirupsen/logrus"
)

// freshnessWindow bounds how old a /menu request may be and still trigger a
// delivery. After a restart the backlog can contain hours-old requests;
// replying to those now would only confuse.
const freshnessWindow = 5 * time.Minute

const (
	unsubscribeAckReply    = "Ihr bekommt nix mehr."
	neverSubscribedReply   = "Ihr habt /start nicht gesendet"
	alreadySubscribedReply = "Ihr bekommt das aktuelle Menü schon"
)

// MenuScheduler is the narrow scheduler contract the handler needs.
type MenuScheduler interface {
	Schedule(ctx context.Context, chatID int64) error
	Cancel(ctx context.Context, chatID int64) error
}

// MessageHandler interprets one batch of inbound messages: direct menu
// requests, subscribe and unsubscribe commands.
type MessageHandler struct {
	menus   *MenuService
	sched   MenuScheduler
	client  domainTelegram.Client
	updates domainTelegram.UpdateSource
	logger  *logrus.Entry
	now     func() time.Time

	subscribeReply string
}

func NewMessageHandler(
	menus *MenuService,
	sched MenuScheduler,
	client domainTelegram.Client,
	updates domainTelegram.UpdateSource,
	logger *logrus.Entry,
	notifyHour int,
	notifyMinute int,
) *MessageHandler {
	return &MessageHandler{
		menus:   menus,
		sched:   sched,
		client:  client,
		updates: updates,
		logger:  logger,
		now:     time.Now,
		subscribeReply: fmt.Sprintf(
			"Ihr bekommt ab jetzt pünktlich um %02d:%02d das Menü", notifyHour, notifyMinute,
		),
	}
}

// HandleBatch processes the messages in source order. Every message is
// confirmed exactly once, whatever its handling outcome, so the poll loop
// always makes forward progress.
func (h *MessageHandler) HandleBatch(ctx context.Context, batch []domainTelegram.Message) {
	for _, msg := range batch {
		h.handle(ctx, msg)
		if err := h.updates.Confirm(msg); err != nil {
			h.logger.WithError(err).WithField("update_id", msg.UpdateID).Error("Could not confirm update")
		}
	}
}

func (h *MessageHandler) handle(ctx context.Context, msg domainTelegram.Message) {
	logCtx := h.logger.WithFields(logrus.Fields{"chat_id": msg.ChatID, "update_id": msg.UpdateID})

	// Stale menu requests are not replayed, but their subscription commands
	// below still count.
	if h.now().Sub(msg.ReceivedAt) < freshnessWindow && strings.HasPrefix(msg.Text, "/menu") {
		if err := h.menus.DeliverMenu(ctx, msg.ChatID); err != nil {
			logCtx.WithError(err).Error("Menu delivery failed")
		}
	}

	switch {
	case strings.HasPrefix(msg.Text, "/start"):
		logCtx.Info("Received start message")
		err := h.sched.Schedule(ctx, msg.ChatID)
		switch {
		case err == nil:
			h.reply(logCtx, msg.ChatID, h.subscribeReply)
		case errors.Is(err, scheduler.ErrAlreadyScheduled):
			h.reply(logCtx, msg.ChatID, alreadySubscribedReply)
		default:
			logCtx.WithError(err).Error("Could not create subscription")
		}

	case strings.HasPrefix(msg.Text, "/stop"):
		logCtx.Info("Received stop message")
		h.reply(logCtx, msg.ChatID, unsubscribeAckReply)
		err := h.sched.Cancel(ctx, msg.ChatID)
		switch {
		case err == nil:
		case errors.Is(err, scheduler.ErrNotScheduled):
			h.reply(logCtx, msg.ChatID, neverSubscribedReply)
		default:
			logCtx.WithError(err).Error("Could not remove subscription")
		}
	}
}

func (h *MessageHandler) reply(logCtx *logrus.Entry, chatID int64, text string) {
	if err := h.client.SendMessage(chatID, text, nil); err != nil {
		logCtx.WithError(err).Error("Could not send reply")
	}
}

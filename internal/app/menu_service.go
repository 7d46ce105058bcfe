package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"mensa_menu_bot/internal/domain/menu"
	domainTelegram "mensa_menu_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// ErrMenuNotFound means the published week was fetched successfully but does
// not list the requested date. Distinct from a fetch failure so the user gets
// a message naming the date instead of the generic fallback.
var ErrMenuNotFound = fmt.Errorf("no menu published for requested date")

const (
	weekendMessage     = "Am Wochenende bleibt die Mensaküche kalt"
	fetchFailedMessage = "Kein Menü gefunden"
	notFoundFormat     = "Nix gefunden für den %s"
)

// MenuService owns the process-wide menu cache and everything built on it:
// lookup with lazy whole-week refresh, rendering and delivery to a chat.
type MenuService struct {
	source          menu.Source
	telegramClient  domainTelegram.Client
	logger          *logrus.Entry
	excludedCounter string
	cutoffHour      int
	now             func() time.Time

	// week maps date -> menu for the currently cached week. Refresh swaps
	// the whole map under the mutex, never mutates it in place, so cron
	// deliveries and the poller may read concurrently.
	mu   sync.RWMutex
	week map[menu.Date]menu.DailyMenu
}

func NewMenuService(
	source menu.Source,
	telegramClient domainTelegram.Client,
	logger *logrus.Entry,
	excludedCounter string,
	cutoffHour int,
) *MenuService {
	return &MenuService{
		source:          source,
		telegramClient:  telegramClient,
		logger:          logger,
		excludedCounter: excludedCounter,
		cutoffHour:      cutoffHour,
		now:             time.Now,
		week:            make(map[menu.Date]menu.DailyMenu),
	}
}

// Menu returns the menu for date. On a cache miss the whole currently
// published week is refetched and replaces the cache; entries for dates no
// longer published drop out. A failed refresh leaves the cache untouched.
func (s *MenuService) Menu(ctx context.Context, date menu.Date) (menu.DailyMenu, error) {
	s.mu.RLock()
	daily, ok := s.week[date]
	s.mu.RUnlock()
	if ok {
		return daily, nil
	}

	week, err := s.source.FetchWeek(ctx)
	if err != nil {
		return menu.DailyMenu{}, fmt.Errorf("refreshing menu cache: %w", err)
	}

	s.mu.Lock()
	s.week = week
	s.mu.Unlock()
	s.logger.WithField("days", len(week)).Debug("Menu cache refreshed")

	daily, ok = week[date]
	if !ok {
		return menu.DailyMenu{}, ErrMenuNotFound
	}
	return daily, nil
}

// FormatMenu renders the menu for date as a Markdown text block, one
// "*counter*: dish" line per row. Weekend dates get the fixed closed-kitchen
// message without touching the cache. Rows of the excluded counter are
// filtered at render time only.
func (s *MenuService) FormatMenu(ctx context.Context, date menu.Date) string {
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return weekendMessage
	}

	daily, err := s.Menu(ctx, date)
	if err != nil {
		if errors.Is(err, ErrMenuNotFound) {
			return fmt.Sprintf(notFoundFormat, date.Format())
		}
		s.logger.WithError(err).WithField("date", date.Format()).Error("Could not refresh menu cache")
		return fetchFailedMessage
	}

	var b strings.Builder
	for _, row := range daily.Rows {
		if row.Counter == s.excludedCounter {
			continue
		}
		fmt.Fprintf(&b, "*%s*: %s \n", row.Counter, row.Dish)
	}
	return b.String()
}

// TargetDate is the date a menu request at the given moment refers to: today,
// or tomorrow once the afternoon cutoff hour has passed.
func (s *MenuService) TargetDate(now time.Time) menu.Date {
	date := menu.DateOf(now)
	if now.Hour() >= s.cutoffHour {
		date = date.AddDays(1)
	}
	return date
}

// DeliverMenu sends the current target date's menu to the chat. Used both for
// direct /menu requests and for scheduled deliveries.
func (s *MenuService) DeliverMenu(ctx context.Context, chatID int64) error {
	date := s.TargetDate(s.now())
	text := s.FormatMenu(ctx, date)
	opts := &telebot.SendOptions{ParseMode: telebot.ModeMarkdown}
	if err := s.telegramClient.SendMessage(chatID, text, opts); err != nil {
		return fmt.Errorf("sending menu to chat %d: %w", chatID, err)
	}
	s.logger.WithFields(logrus.Fields{"date": date.Format(), "chat_id": chatID}).Info("Send menu")
	return nil
}

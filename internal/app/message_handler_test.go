package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mensa_menu_bot/internal/domain/menu"
	domainTelegram "mensa_menu_bot/internal/domain/telegram"
	"mensa_menu_bot/internal/infra/scheduler"
)

type fakeScheduler struct {
	scheduled     map[int64]bool
	scheduleErr   error
	cancelErr     error
	scheduleCalls int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: make(map[int64]bool)}
}

func (f *fakeScheduler) Schedule(ctx context.Context, chatID int64) error {
	f.scheduleCalls++
	if f.scheduleErr != nil {
		return f.scheduleErr
	}
	if f.scheduled[chatID] {
		return scheduler.ErrAlreadyScheduled
	}
	f.scheduled[chatID] = true
	return nil
}

func (f *fakeScheduler) Cancel(ctx context.Context, chatID int64) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	if !f.scheduled[chatID] {
		return scheduler.ErrNotScheduled
	}
	delete(f.scheduled, chatID)
	return nil
}

type fakeUpdates struct {
	batch     []domainTelegram.Message
	fetchErr  error
	confirmed []int
}

func (f *fakeUpdates) FetchUpdates() ([]domainTelegram.Message, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.batch, nil
}

func (f *fakeUpdates) Confirm(msg domainTelegram.Message) error {
	f.confirmed = append(f.confirmed, msg.UpdateID)
	return nil
}

type handlerFixture struct {
	handler *MessageHandler
	source  *fakeSource
	sched   *fakeScheduler
	client  *fakeClient
	updates *fakeUpdates
	now     time.Time
}

func newHandlerFixture(week map[menu.Date]menu.DailyMenu) *handlerFixture {
	f := &handlerFixture{
		source:  &fakeSource{week: week},
		sched:   newFakeScheduler(),
		client:  &fakeClient{},
		updates: &fakeUpdates{},
		// a Tuesday morning
		now: time.Date(2026, time.January, 6, 10, 0, 0, 0, time.Local),
	}
	menus := newTestMenuService(f.source, f.client)
	menus.now = func() time.Time { return f.now }
	f.handler = NewMessageHandler(menus, f.sched, f.client, f.updates, testEntry(), 11, 0)
	f.handler.now = menus.now
	return f
}

func (f *handlerFixture) message(id int, text string, age time.Duration) domainTelegram.Message {
	return domainTelegram.Message{
		ChatID:     42,
		UpdateID:   id,
		Text:       text,
		ReceivedAt: f.now.Add(-age),
	}
}

func (f *handlerFixture) sentTexts() []string {
	texts := make([]string, 0, len(f.client.sent))
	for _, m := range f.client.sent {
		texts = append(texts, m.text)
	}
	return texts
}

func TestMenuRequestDelivered(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(map[menu.Date]menu.DailyMenu{tuesday: tuesdayMenu()})

	f.handler.HandleBatch(context.Background(), []domainTelegram.Message{
		f.message(7, "/menu", time.Minute),
	})

	if len(f.client.sent) != 1 {
		t.Fatalf("expected 1 delivery, got %d: %v", len(f.client.sent), f.sentTexts())
	}
	want := "*Hauptgericht*: Schnitzel  \n*Beilagen*: Salat \n"
	if f.client.sent[0].text != want {
		t.Fatalf("delivered %q, want %q", f.client.sent[0].text, want)
	}
	if len(f.updates.confirmed) != 1 || f.updates.confirmed[0] != 7 {
		t.Fatalf("expected update 7 confirmed, got %v", f.updates.confirmed)
	}
}

func TestStaleMenuRequestNotReplayed(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(map[menu.Date]menu.DailyMenu{tuesday: tuesdayMenu()})

	f.handler.HandleBatch(context.Background(), []domainTelegram.Message{
		f.message(8, "/menu", 10*time.Minute),
	})

	if len(f.client.sent) != 0 {
		t.Fatalf("stale request must not trigger delivery, sent %v", f.sentTexts())
	}
	if len(f.updates.confirmed) != 1 || f.updates.confirmed[0] != 8 {
		t.Fatalf("stale message still needs confirmation, got %v", f.updates.confirmed)
	}
}

func TestMenuRequestAfterCutoffHitsWeekend(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(map[menu.Date]menu.DailyMenu{})
	// Friday 16:00: target date rolls over to Saturday.
	f.now = time.Date(2026, time.January, 9, 16, 0, 0, 0, time.Local)

	f.handler.HandleBatch(context.Background(), []domainTelegram.Message{
		f.message(9, "/menu", time.Minute),
	})

	if len(f.client.sent) != 1 || f.client.sent[0].text != weekendMessage {
		t.Fatalf("expected weekend message, sent %v", f.sentTexts())
	}
	if f.source.calls != 0 {
		t.Fatal("weekend target date must not touch the menu source")
	}
}

func TestSubscribeTwice(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(nil)

	f.handler.HandleBatch(context.Background(), []domainTelegram.Message{
		f.message(10, "/start", time.Minute),
		f.message(11, "/start", time.Minute),
	})

	texts := f.sentTexts()
	if len(texts) != 2 {
		t.Fatalf("expected 2 replies, got %v", texts)
	}
	if texts[0] != "Ihr bekommt ab jetzt pünktlich um 11:00 das Menü" {
		t.Fatalf("first reply = %q", texts[0])
	}
	if texts[1] != alreadySubscribedReply {
		t.Fatalf("second reply = %q, want %q", texts[1], alreadySubscribedReply)
	}
	if len(f.sched.scheduled) != 1 {
		t.Fatalf("expected exactly 1 job, got %d", len(f.sched.scheduled))
	}
	if got := f.updates.confirmed; len(got) != 2 || got[0] != 10 || got[1] != 11 {
		t.Fatalf("confirmations = %v, want [10 11]", got)
	}
}

func TestUnsubscribeWithoutSubscription(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(nil)

	f.handler.HandleBatch(context.Background(), []domainTelegram.Message{
		f.message(12, "/stop", time.Minute),
	})

	texts := f.sentTexts()
	if len(texts) != 2 {
		t.Fatalf("expected ack + rejection, got %v", texts)
	}
	if texts[0] != unsubscribeAckReply {
		t.Fatalf("first reply = %q, want %q", texts[0], unsubscribeAckReply)
	}
	if texts[1] != neverSubscribedReply {
		t.Fatalf("second reply = %q, want %q", texts[1], neverSubscribedReply)
	}
}

func TestSubscribeThenUnsubscribe(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(nil)

	f.handler.HandleBatch(context.Background(), []domainTelegram.Message{
		f.message(13, "/start", time.Minute),
		f.message(14, "/stop", time.Minute),
	})

	if len(f.sched.scheduled) != 0 {
		t.Fatalf("expected no remaining jobs, got %d", len(f.sched.scheduled))
	}
	texts := f.sentTexts()
	// confirmation, then only the unsubscribe ack: a clean cancel sends no
	// second reply.
	if len(texts) != 2 || texts[1] != unsubscribeAckReply {
		t.Fatalf("unexpected replies %v", texts)
	}
}

func TestFailuresNeverBlockConfirmation(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(nil)
	f.source.err = fmt.Errorf("menu page down")
	f.sched.scheduleErr = fmt.Errorf("database down")
	f.client.err = fmt.Errorf("sendMessage timed out")

	f.handler.HandleBatch(context.Background(), []domainTelegram.Message{
		f.message(20, "/menu", time.Minute),
		f.message(21, "/start", time.Minute),
		f.message(22, "/stop", time.Minute),
	})

	if got := f.updates.confirmed; len(got) != 3 || got[0] != 20 || got[1] != 21 || got[2] != 22 {
		t.Fatalf("every message must be confirmed exactly once, got %v", got)
	}
}

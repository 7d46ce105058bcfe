package subscription

import "time"

// Subscription represents a chat that receives the menu automatically on
// weekdays. The chat ID doubles as the scheduler job ID.
type Subscription struct {
	ChatID       int64
	NotifyHour   int
	NotifyMinute int
	CreatedAt    time.Time
}

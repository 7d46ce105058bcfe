package menu

import "context"

// Source retrieves the menus of the currently published week.
// Implementations fetch and parse the cafeteria's weekly plan; a weekday
// whose section cannot be parsed is simply absent from the result.
type Source interface {
	FetchWeek(ctx context.Context) (map[Date]DailyMenu, error)
}

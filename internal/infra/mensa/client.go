// Package mensa implements the menu source: it fetches the cafeteria's
// weekly plan page and parses it into per-date menus.
package mensa

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"mensa_menu_bot/internal/domain/menu"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Client fetches the weekly plan over HTTP. It implements menu.Source.
type Client struct {
	http   *resty.Client
	url    string
	logger *logrus.Entry
}

func NewClient(url string, timeout time.Duration, logger *logrus.Entry) *Client {
	return &Client{
		http:   resty.New().SetTimeout(timeout),
		url:    url,
		logger: logger,
	}
}

// FetchWeek downloads the weekly plan document and extracts every weekday
// that parses cleanly. A weekday with a missing or malformed section is
// logged and omitted; only a failure of the document as a whole is an error.
func (c *Client) FetchWeek(ctx context.Context) (map[menu.Date]menu.DailyMenu, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("fetching menu page: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("menu page returned status %d", resp.StatusCode())
	}
	return parseWeek(bytes.NewReader(resp.Body()), c.logger)
}

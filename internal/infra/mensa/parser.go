package mensa

import (
	"fmt"
	"io"
	"strings"
	"time"

	"mensa_menu_bot/internal/domain/menu"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// weekdaySections are the ids of the per-day sections on the weekly plan
// page. The kitchen is closed on weekends, so the page lists Monday-Friday.
var weekdaySections = []string{"montag", "dienstag", "mittwoch", "donnerstag", "freitag"}

const dateLayout = "02.01.2006"

// parseWeek extracts a menu per weekday from the weekly plan document.
// A weekday that fails to parse is logged and left out of the result, so one
// malformed section never invalidates the rest of the week.
func parseWeek(r io.Reader, logger *logrus.Entry) (map[menu.Date]menu.DailyMenu, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing menu document: %w", err)
	}

	week := make(map[menu.Date]menu.DailyMenu, len(weekdaySections))
	for _, weekday := range weekdaySections {
		date, err := resolveDate(doc, weekday)
		if err != nil {
			logger.WithError(err).WithField("weekday", weekday).Warn("Parsing error, skipping weekday")
			continue
		}
		daily, err := extractDailyMenu(doc, weekday)
		if err != nil {
			logger.WithError(err).WithField("weekday", weekday).Warn("Parsing error, skipping weekday")
			continue
		}
		daily.Date = date
		week[date] = daily
	}
	return week, nil
}

// resolveDate reads the calendar date from the navigation anchor labeling the
// weekday's section. The anchor text carries the date as its second token,
// e.g. "Montag 05.01.2026".
func resolveDate(doc *goquery.Document, weekday string) (menu.Date, error) {
	anchor := doc.Find(`a[href="#` + weekday + `"]`).First()
	if anchor.Length() == 0 {
		return menu.Date{}, fmt.Errorf("no anchor for section %q", weekday)
	}
	tokens := strings.Fields(anchor.Text())
	if len(tokens) < 2 {
		return menu.Date{}, fmt.Errorf("anchor text %q carries no date token", strings.TrimSpace(anchor.Text()))
	}
	t, err := time.ParseInLocation(dateLayout, tokens[1], time.Local)
	if err != nil {
		return menu.Date{}, fmt.Errorf("parsing date token %q: %w", tokens[1], err)
	}
	return menu.DateOf(t), nil
}

// extractDailyMenu parses the menu table of one weekday section into rows of
// (dish, description, counter). Counter names are indirected through tooltip
// attributes; the tooltip markup replaces the bare anchor so the visible
// label is the real counter name. Rows with any empty cell are dropped.
func extractDailyMenu(doc *goquery.Document, weekday string) (menu.DailyMenu, error) {
	section := doc.Find("div#" + weekday).First()
	if section.Length() == 0 {
		return menu.DailyMenu{}, fmt.Errorf("no section %q in document", weekday)
	}
	table := section.Find("table").First()
	if table.Length() == 0 {
		return menu.DailyMenu{}, fmt.Errorf("no menu table in section %q", weekday)
	}

	table.Find("a[data-tooltip]").Each(func(_ int, anchor *goquery.Selection) {
		tooltip, _ := anchor.Attr("data-tooltip")
		anchor.ReplaceWithHtml(tooltip)
	})

	var rows []menu.Row
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 3 {
			return
		}
		dish := menu.NormalizeDish(strings.TrimSpace(cells.Eq(0).Text()))
		description := strings.TrimSpace(cells.Eq(1).Text())
		counter := strings.TrimSpace(cells.Eq(2).Text())
		if strings.TrimSpace(dish) == "" || description == "" || counter == "" {
			return
		}
		rows = append(rows, menu.Row{Counter: counter, Dish: dish, Description: description})
	})
	return menu.DailyMenu{Rows: rows}, nil
}

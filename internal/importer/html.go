// Package importer reads timetables published as HTML tables: one header
// row of day names, then one row per period whose first cell is the
// "HH:MM-HH:MM" range. A cell with rowspan covers the following periods.
package importer

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"timetable-service/internal/schedule"
	"timetable-service/internal/timegrid"
)

var spaces = regexp.MustCompile(`\s+`)

// Row is one imported cell ready for schedule.NewSession, with the table
// row it came from for error reporting.
type Row struct {
	Line  int
	Input schedule.SessionInput
}

// ParseHTML reads the first table of the document.
func ParseHTML(r io.Reader) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errors.New("no timetable table found")
	}

	rows := table.Find("tr")
	if rows.Length() < 2 {
		return nil, errors.New("timetable has no period rows")
	}

	var days []timegrid.Day
	var headerErr error
	rows.First().Children().Slice(1, goquery.ToEnd).Each(func(_ int, th *goquery.Selection) {
		if headerErr != nil {
			return
		}
		d, err := timegrid.ParseDay(th.Text())
		if err != nil {
			headerErr = fmt.Errorf("header: %w", err)
			return
		}
		days = append(days, d)
	})
	if headerErr != nil {
		return nil, headerErr
	}
	if len(days) == 0 {
		return nil, errors.New("header row lists no days")
	}

	var out []Row
	// pending counts the periods a rowspan still covers in each column;
	// blank marks spans of empty cells, which occupy the column silently.
	pending := make([]int, len(days))
	carry := make([]schedule.SessionInput, len(days))
	blank := make([]bool, len(days))

	rows.Slice(1, goquery.ToEnd).Each(func(i int, row *goquery.Selection) {
		start, end, ok := parseRange(row.Children().First().Text())
		if !ok {
			// break rows carry a label instead of a range
			return
		}
		cells := row.Children().Slice(1, goquery.ToEnd)
		next := 0
		for col, day := range days {
			if pending[col] > 0 {
				pending[col]--
				if blank[col] {
					continue
				}
				in := carry[col]
				in.StartTime, in.EndTime = start, end
				out = append(out, Row{Line: i + 2, Input: in})
				continue
			}
			if next >= cells.Length() {
				break
			}
			cell := cells.Eq(next)
			next++

			in, ok := parseCell(cell)
			if span, err := strconv.Atoi(cell.AttrOr("rowspan", "1")); err == nil && span > 1 {
				pending[col] = span - 1
				blank[col] = !ok
			}
			if !ok {
				continue
			}
			in.Day = day.String()
			in.StartTime, in.EndTime = start, end
			out = append(out, Row{Line: i + 2, Input: in})
			if pending[col] > 0 {
				carry[col] = in
			}
		}
	})
	return out, nil
}

func parseRange(s string) (string, string, bool) {
	s = spaces.ReplaceAllString(s, "")
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	if _, err := timegrid.ParseClock(parts[0]); err != nil {
		return "", "", false
	}
	if _, err := timegrid.ParseClock(parts[1]); err != nil {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// parseCell prefers marked-up spans (.class, .room, .type, .label) and
// falls back to "CLASS / ROOM / TYPE" plain text.
func parseCell(cell *goquery.Selection) (schedule.SessionInput, bool) {
	if cell.HasClass("empty") {
		return schedule.SessionInput{}, false
	}
	in := schedule.SessionInput{
		ClassRef:    strings.TrimSpace(cell.Find(".class").Text()),
		Room:        strings.TrimSpace(cell.Find(".room").Text()),
		SessionType: strings.TrimSpace(cell.Find(".type").Text()),
		CustomLabel: strings.TrimSpace(cell.Find(".label").Text()),
	}
	if in.ClassRef == "" {
		text := strings.TrimSpace(cell.Text())
		if text == "" {
			return schedule.SessionInput{}, false
		}
		parts := strings.Split(text, "/")
		in.ClassRef = strings.TrimSpace(parts[0])
		if len(parts) > 1 {
			in.Room = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			in.SessionType = strings.TrimSpace(parts[2])
		}
	}
	return in, in.ClassRef != ""
}

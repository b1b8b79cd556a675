// Package submission holds submitted form data and maps it onto sheet rows.
package submission

import (
	"strings"
	"time"

	"golang.org/x/net/html"
)

// TimestampLayout is day/month/year hour:minute:second.
const TimestampLayout = "02/01/2006 15:04:05"

const KindFile = "file"

// Field is one submitted form field. DisplayText is the field's rendered
// short text, which for file uploads is an HTML link.
type Field struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	DisplayText string `json:"display_text"`
}

// Submission is a single form entry with its fields in form order.
type Submission struct {
	EntryID string  `json:"entry_id"`
	Fields  []Field `json:"fields"`
}

// BuildRow turns fields into sheet cell values, keeping their order.
// Fields whose ID is in exclude are left out. When includeTimestamp is set
// the row starts with now formatted as TimestampLayout.
func BuildRow(fields []Field, exclude map[string]struct{}, includeTimestamp bool, now time.Time) []string {
	values := make([]string, 0, len(fields)+1)
	if includeTimestamp {
		values = append(values, now.Format(TimestampLayout))
	}

	for _, field := range fields {
		if _, skip := exclude[field.ID]; skip {
			continue
		}
		if field.Kind == KindFile {
			values = append(values, FirstHref(field.DisplayText))
			continue
		}
		values = append(values, field.DisplayText)
	}
	return values
}

// FirstHref returns the first non-empty href attribute found in fragment, or "".
func FirstHref(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			_, hasAttr := z.TagName()
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "href" && len(val) > 0 {
					return string(val)
				}
			}
		}
	}
}

// ParseExclusions splits a comma separated list of field IDs.
func ParseExclusions(raw string) map[string]struct{} {
	exclude := make(map[string]struct{})
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			exclude[id] = struct{}{}
		}
	}
	return exclude
}

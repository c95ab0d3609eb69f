// Package caption extracts the structured post fields from a free-form photo
// caption. Parsing is pure: no I/O, no clock access beyond the caller-supplied
// reference time used for the date default.
package caption

import (
	"regexp"
	"strings"
	"time"

	"reelpress/internal/services"
)

// Fields holds the labeled segments extracted from a caption.
type Fields struct {
	Title    string
	Content  string
	Hashtags string
	Date     string
}

// labelPattern matches a recognized label introducing a segment. Labels are
// case-insensitive, anchored at a line start, and followed by a colon.
var labelPattern = regexp.MustCompile(`(?im)^[ \t]*(title|content|hashtags|date)[ \t]*:`)

// requiredLabels is checked in caption order so the reported missing field is
// the first one the user left out.
var requiredLabels = []string{"title", "content", "hashtags"}

// Parse extracts the four labeled segments from raw text. Each segment runs
// from its label's colon to the next recognized label or end of text and may
// span multiple lines; surrounding whitespace is trimmed. Title, Content,
// and Hashtags are mandatory. A missing Date defaults to now formatted as
// DD MMM YYYY uppercase.
func Parse(raw string, now time.Time) (Fields, error) {
	matches := labelPattern.FindAllStringSubmatchIndex(raw, -1)

	segments := make(map[string]string, 4)
	for i, match := range matches {
		label := strings.ToLower(raw[match[2]:match[3]])
		if _, dup := segments[label]; dup {
			continue
		}
		end := len(raw)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		segments[label] = strings.TrimSpace(raw[match[1]:end])
	}

	for _, label := range requiredLabels {
		if segments[label] == "" {
			return Fields{}, services.Wrap(services.ErrFormat, "caption", "parse",
				"missing field "+capitalize(label), nil)
		}
	}

	date := segments["date"]
	if date == "" {
		date = strings.ToUpper(now.Format("02 Jan 2006"))
	}

	return Fields{
		Title:    segments["title"],
		Content:  segments["content"],
		Hashtags: segments["hashtags"],
		Date:     date,
	}, nil
}

func capitalize(label string) string {
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

package stats

import (
	"strings"

	"timereport/internal/domain"
)

const (
	DefaultOpenMarker  = "【"
	DefaultCloseMarker = "】"
)

// Extractor pulls the category out of the first open/close marker pair in a
// title. The zero value uses the default lenticular brackets.
type Extractor struct {
	Open  string
	Close string
}

func NewExtractor(open, close string) Extractor {
	return Extractor{Open: open, Close: close}
}

func (e Extractor) markers() (string, string) {
	open, close := e.Open, e.Close
	if open == "" {
		open = DefaultOpenMarker
	}
	if close == "" {
		close = DefaultCloseMarker
	}
	return open, close
}

// Extract returns the text between the first open marker and the next close
// marker after it. Later pairs are never consulted, so an empty first
// segment such as "【】a【B】" yields no category.
func (e Extractor) Extract(title string) (domain.Category, bool) {
	open, close := e.markers()
	i := strings.Index(title, open)
	if i < 0 {
		return "", false
	}
	rest := title[i+len(open):]
	j := strings.Index(rest, close)
	if j <= 0 {
		return "", false
	}
	return domain.Category(rest[:j]), true
}

// ExtractCategory uses the default markers.
func ExtractCategory(title string) (domain.Category, bool) {
	return Extractor{}.Extract(title)
}

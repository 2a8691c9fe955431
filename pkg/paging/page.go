package paging

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// UnknownTotal is used when the backend does not report the size of the listing
const UnknownTotal = -1

// Page is the envelope of one page of a paginated listing. Two envelope styles are understood:
// offset pages ({"items", "total", "page", "size", "pages"}) and linked pages
// ({"items" or "results", "next", "count"}).
type Page struct {
	Items  []json.RawMessage
	Total  int
	Number int
	Size   int
	Pages  int
	Next   string

	linked bool
}

// ParsePage parses the JSON envelope of a page
func ParsePage(body []byte) (*Page, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("page is not valid JSON")
	}
	envelope := gjson.ParseBytes(body)
	if !envelope.IsObject() {
		return nil, errors.New("page is not a JSON object")
	}

	items := envelope.Get("items")
	if !items.Exists() {
		items = envelope.Get("results")
	}
	if !items.IsArray() {
		return nil, errors.New("page does not contain an items array")
	}

	page := &Page{
		Total:  UnknownTotal,
		Number: intField(envelope, "page", 0),
		Size:   intField(envelope, "size", 0),
		Pages:  intField(envelope, "pages", 0),
	}
	items.ForEach(func(_, item gjson.Result) bool {
		page.Items = append(page.Items, json.RawMessage(item.Raw))
		return true
	})
	if total := intField(envelope, "total", UnknownTotal); total != UnknownTotal {
		page.Total = total
	} else {
		page.Total = intField(envelope, "count", UnknownTotal)
	}
	if next := envelope.Get("next"); next.Exists() {
		page.linked = true
		if next.Type == gjson.String {
			page.Next = next.String()
		}
	}

	return page, nil
}

// IsLast reports whether no page follows this one
func (p *Page) IsLast() bool {
	if len(p.Items) == 0 {
		return true
	}
	if p.linked {
		return p.Next == ""
	}
	// an offset page without its number cannot tell which page follows
	if p.Number <= 0 {
		return true
	}
	if p.Pages > 0 {
		return p.Number >= p.Pages
	}
	if p.Total >= 0 && p.Size > 0 {
		return p.Number*p.Size >= p.Total
	}
	// without a total only a short page ends the listing
	if p.Size > 0 {
		return len(p.Items) < p.Size
	}
	// neither a link nor offset metadata: nothing to continue from
	return true
}

// NextCursor returns the cursor of the following page
func (p *Page) NextCursor() string {
	if p.linked {
		return p.Next
	}
	return strconv.Itoa(p.Number + 1)
}

// intField returns the numeric field of the envelope, or fallback when it is absent, null or not a number
func intField(envelope gjson.Result, field string, fallback int) int {
	value := envelope.Get(field)
	if value.Type != gjson.Number {
		return fallback
	}
	return int(value.Int())
}

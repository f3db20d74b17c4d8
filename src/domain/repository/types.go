package repository

import (
	"encoding/json"
	"strings"
)

type Page struct {
	Limit  int
	Offset int
	Total  int

	// Order is the raw `order` form value; services resolve it against
	// their allowed field set with OrderBy.
	Order string
}

func (self Page) Number() int {
	if self.Limit <= 0 {
		return 1
	}
	number := 1
	for ; number*self.Limit <= self.Offset; number += 1 {
	}
	return number
}

func (self Page) Pages() int {
	if self.Limit <= 0 {
		return 0
	}
	pages := self.Total / self.Limit
	if self.Total%self.Limit != 0 {
		pages += 1
	}
	return pages
}

// OrderBy resolves the requested order against the allowed fields,
// mapping the API field name to its column. A leading `-` sorts
// descending. Unknown or absent fields fall back.
func (self Page) OrderBy(allowed map[string]string, fallback string) string {
	field := self.Order
	direction := ""
	if strings.HasPrefix(field, "-") {
		field = field[1:]
		direction = " DESC"
	}
	if column, ok := allowed[field]; ok {
		return column + direction
	}
	return fallback
}

func (self Page) PrevOffset() *int {
	if self.Limit <= 0 {
		return nil
	}
	offset := self.Offset - self.Limit
	if offset < 0 {
		offset = 0
	}
	if offset == self.Offset {
		return nil
	}
	return &offset
}

func (self Page) NextOffset() *int {
	if self.Limit <= 0 {
		return nil
	}
	offset := self.Offset + self.Limit
	if offset >= self.Total {
		return nil
	}
	return &offset
}

func (self *Page) MarshalJSON() ([]byte, error) {
	if self == nil {
		return []byte("null"), nil
	}
	return json.Marshal(map[string]any{
		"offset":      self.Offset,
		"limit":       self.Limit,
		"total":       self.Total,
		"number":      self.Number(),
		"pages":       self.Pages(),
		"prev_offset": self.PrevOffset(),
		"next_offset": self.NextOffset(),
	})
}

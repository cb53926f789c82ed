package pagination

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage keeps Offset within an int32 row offset.
	MaxPage      = math.MaxInt32 / MaxLimit
)

// Page is 1-based offset pagination state.
type Page struct {
	Number int `json:"page"`
	Limit  int `json:"limit"`
}

// New clamps page to [1, MaxPage] and limit to [1, MaxLimit]; non-positive values
// fall back to the defaults.
func New(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Number: page, Limit: limit}
}

// Parse reads page/limit query values. Empty strings use the defaults;
// non-numeric values are rejected.
func Parse(pageStr, limitStr string) (Page, error) {
	page, err := parseOptional(pageStr, "page")
	if err != nil {
		return Page{}, err
	}
	limit, err := parseOptional(limitStr, "limit")
	if err != nil {
		return Page{}, err
	}
	return New(page, limit), nil
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

func parseOptional(s, name string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return n, nil
}

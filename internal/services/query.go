package services

import (
	"regexp"
	"slices"
	"strings"

	"library-catalog/internal/models"
	"library-catalog/internal/store"
)

// Only two expression shapes are understood:
//
//	//book[field="value"]
//	//book[contains(field,"value")]
var (
	equalsExpr   = regexp.MustCompile(`^//book\[\s*(\w+)\s*=\s*"([^"]*)"\s*\]$`)
	containsExpr = regexp.MustCompile(`^//book\[\s*contains\(\s*(\w+)\s*,\s*"([^"]*)"\s*\)\s*\]$`)
)

type bookQuery struct {
	field    string
	value    string
	contains bool
}

// parseQuery returns nil for an empty expression, meaning "all books".
func parseQuery(expr string) (*bookQuery, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	q := &bookQuery{}
	if m := equalsExpr.FindStringSubmatch(expr); m != nil {
		q.field, q.value = m[1], m[2]
	} else if m := containsExpr.FindStringSubmatch(expr); m != nil {
		q.field, q.value, q.contains = m[1], m[2], true
	} else {
		return nil, models.NewValidationError("expr", `unsupported expression, use //book[field="value"] or //book[contains(field,"value")]`)
	}

	if q.field != "id" && !slices.Contains(sortableFields, q.field) {
		return nil, models.NewValidationError("expr", "unknown field "+q.field)
	}
	q.value = strings.ToLower(q.value)
	return q, nil
}

func (q *bookQuery) match(b models.Book) bool {
	value, _ := b.FieldValue(q.field)
	value = strings.ToLower(value)
	if q.contains {
		return strings.Contains(value, q.value)
	}
	return value == q.value
}

// Query evaluates a minimal XPath-like expression and returns the matching
// books as a library XML document.
func (s *CatalogService) Query(expr string) ([]byte, error) {
	q, err := parseQuery(expr)
	if err != nil {
		return nil, err
	}
	books, err := s.loadUnique()
	if err != nil {
		return nil, err
	}

	matched := books
	if q != nil {
		matched = make([]models.Book, 0, len(books))
		for _, b := range books {
			if q.match(b) {
				matched = append(matched, b)
			}
		}
	}
	return store.EncodeBooks(matched)
}

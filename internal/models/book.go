package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

type Book struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	PublishYear string  `json:"publishYear"`
	Stock       int     `json:"stock"`
}

// FieldValue returns the textual form of a named book field and whether the
// field exists.
func (b Book) FieldValue(field string) (string, bool) {
	switch field {
	case "id":
		return b.ID, true
	case "title":
		return b.Title, true
	case "author":
		return b.Author, true
	case "category":
		return b.Category, true
	case "price":
		return strconv.FormatFloat(b.Price, 'f', -1, 64), true
	case "publishYear":
		return b.PublishYear, true
	case "stock":
		return strconv.Itoa(b.Stock), true
	}
	return "", false
}

// TitleAuthorKey is the case-insensitive (title, author) identity used for
// de-duplication. It is empty when either part is blank.
func (b Book) TitleAuthorKey() string {
	title := strings.ToLower(strings.TrimSpace(b.Title))
	author := strings.ToLower(strings.TrimSpace(b.Author))
	if title == "" || author == "" {
		return ""
	}
	return title + "__" + author
}

// LooseValue is a JSON scalar that may arrive as a string or a number, as
// browser forms submit numeric inputs as text.
type LooseValue struct {
	Set bool
	Raw string
}

func (v *LooseValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v.Set, v.Raw = true, s
		return nil
	}
	if len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')) {
		v.Set, v.Raw = true, string(data)
		return nil
	}
	return NewValidationError("", "values must be strings or numbers")
}

func (v LooseValue) MarshalJSON() ([]byte, error) {
	if !v.Set {
		return []byte("null"), nil
	}
	return json.Marshal(v.Raw)
}

func Loose(s string) LooseValue {
	return LooseValue{Set: true, Raw: s}
}

// BookPayload is the create/update request body. Only fields that were
// present in the request are marked Set.
type BookPayload struct {
	ID          LooseValue `json:"id"`
	Title       LooseValue `json:"title"`
	Author      LooseValue `json:"author"`
	Category    LooseValue `json:"category"`
	Price       LooseValue `json:"price"`
	PublishYear LooseValue `json:"publishYear"`
	Published   LooseValue `json:"published"`
	Stock       LooseValue `json:"stock"`
}

type ListOptions struct {
	Field   string
	Keyword string
	Mode    string
	SortBy  string
	Order   string
}

type PageRequest struct {
	ListOptions
	Page     int
	PageSize int
}

type Page struct {
	Total    int    `json:"total"`
	Items    []Book `json:"items"`
	Data     []Book `json:"data"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type SearchResult struct {
	Total int    `json:"total"`
	Data  []Book `json:"data"`
}

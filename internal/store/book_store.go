package store

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"library-catalog/internal/models"

	"github.com/rs/zerolog"
)

const emptyLibrary = xml.Header + "<library></library>\n"

//go:embed books.xsd
var BooksSchema []byte

type xmlLibrary struct {
	XMLName xml.Name  `xml:"library"`
	Books   []xmlBook `xml:"book"`
}

// xmlBook also accepts the legacy <id> child and <published> tag on read.
type xmlBook struct {
	AttrID      string `xml:"id,attr,omitempty"`
	ElemID      string `xml:"id,omitempty"`
	Title       string `xml:"title"`
	Author      string `xml:"author"`
	Category    string `xml:"category"`
	Price       string `xml:"price"`
	PublishYear string `xml:"publishYear"`
	Published   string `xml:"published,omitempty"`
	Stock       string `xml:"stock"`
}

// BookStore persists the whole book collection as one XML document.
type BookStore struct {
	path   string
	logger zerolog.Logger

	mu sync.RWMutex

	cacheMu  sync.Mutex
	lastGood []models.Book
}

func NewBookStore(path string, logger zerolog.Logger) (*BookStore, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	s := &BookStore{path: path, logger: logger}
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *BookStore) Path() string {
	return s.path
}

// Load returns the current collection in file order. An unparsable file
// yields the last snapshot that parsed successfully.
func (s *BookStore) Load() ([]models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load()
}

func (s *BookStore) Save(books []models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(books)
}

// Update runs fn against a freshly loaded collection and persists its result
// while holding the write lock. An error from fn leaves the file untouched.
func (s *BookStore) Update(fn func([]models.Book) ([]models.Book, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load()
	if err != nil {
		return err
	}
	updated, err := fn(books)
	if err != nil {
		return err
	}
	return s.save(updated)
}

func (s *BookStore) Raw() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readFile()
}

func (s *BookStore) load() ([]models.Book, error) {
	data, err := s.readFile()
	if err != nil {
		return nil, err
	}
	books, err := DecodeBooks(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Book file could not be parsed, using last known good snapshot")
		return s.snapshot(), nil
	}
	s.remember(books)
	return books, nil
}

func (s *BookStore) save(books []models.Book) error {
	data, err := EncodeBooks(books)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("Error writing book file")
		return fmt.Errorf("failed to save books: %w", err)
	}
	s.remember(books)
	s.logger.Debug().Int("count", len(books)).Msg("Book file saved")
	return nil
}

func (s *BookStore) readFile() ([]byte, error) {
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read book file: %w", err)
	}
	return data, nil
}

func (s *BookStore) ensureFile() error {
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat book file: %w", err)
	}
	if err := writeFileAtomic(s.path, []byte(emptyLibrary)); err != nil {
		return err
	}
	s.logger.Info().Str("path", s.path).Msg("Created empty book file")
	return nil
}

func (s *BookStore) remember(books []models.Book) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.lastGood = append(s.lastGood[:0:0], books...)
}

func (s *BookStore) snapshot() []models.Book {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return append([]models.Book{}, s.lastGood...)
}

// DecodeBooks parses a library document. Values are trimmed and numeric
// fields that fail to parse become zero.
func DecodeBooks(data []byte) ([]models.Book, error) {
	var lib xmlLibrary
	if err := xml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("invalid library document: %w", err)
	}
	books := make([]models.Book, 0, len(lib.Books))
	for _, raw := range lib.Books {
		id := strings.TrimSpace(raw.AttrID)
		if id == "" {
			id = strings.TrimSpace(raw.ElemID)
		}
		year := strings.TrimSpace(raw.PublishYear)
		if year == "" {
			year = strings.TrimSpace(raw.Published)
		}
		books = append(books, models.Book{
			ID:          id,
			Title:       strings.TrimSpace(raw.Title),
			Author:      strings.TrimSpace(raw.Author),
			Category:    strings.TrimSpace(raw.Category),
			Price:       coerceFloat(raw.Price),
			PublishYear: year,
			Stock:       coerceInt(raw.Stock),
		})
	}
	return books, nil
}

// EncodeBooks renders the collection with price at one decimal place and
// stock as an integer.
func EncodeBooks(books []models.Book) ([]byte, error) {
	lib := xmlLibrary{Books: make([]xmlBook, 0, len(books))}
	for _, b := range books {
		lib.Books = append(lib.Books, xmlBook{
			AttrID:      b.ID,
			Title:       b.Title,
			Author:      b.Author,
			Category:    b.Category,
			Price:       strconv.FormatFloat(b.Price, 'f', 1, 64),
			PublishYear: b.PublishYear,
			Stock:       strconv.Itoa(b.Stock),
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(lib); err != nil {
		return nil, fmt.Errorf("failed to encode books: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func coerceFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// coerceInt reads the leading integer of s, so "12 copies" is 12.
func coerceInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

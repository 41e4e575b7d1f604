package services

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"library-catalog/internal/models"
	"library-catalog/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const DefaultPageSize = 5

var sortableFields = []string{"title", "author", "category", "price", "publishYear", "stock"}

type CatalogService struct {
	store           *store.BookStore
	logger          zerolog.Logger
	locale          language.Tag
	defaultPageSize int
}

func NewCatalogService(bookStore *store.BookStore, logger zerolog.Logger, locale string, defaultPageSize int) *CatalogService {
	tag, err := language.Parse(locale)
	if err != nil {
		logger.Warn().Err(err).Str("locale", locale).Msg("Unknown sort locale, falling back to root collation")
		tag = language.Und
	}
	if defaultPageSize < 1 {
		defaultPageSize = DefaultPageSize
	}
	return &CatalogService{
		store:           bookStore,
		logger:          logger,
		locale:          tag,
		defaultPageSize: defaultPageSize,
	}
}

// Dedupe keeps the first book for each case-insensitive (title, author)
// pair. Books missing either part are always kept.
func Dedupe(books []models.Book) ([]models.Book, int) {
	seen := make(map[string]struct{}, len(books))
	unique := make([]models.Book, 0, len(books))
	for _, b := range books {
		key := b.TitleAuthorKey()
		if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		unique = append(unique, b)
	}
	return unique, len(books) - len(unique)
}

// loadUnique returns the de-duplicated collection, persisting it first when
// the file held duplicates.
func (s *CatalogService) loadUnique() ([]models.Book, error) {
	books, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	unique, removed := Dedupe(books)
	if removed == 0 {
		return unique, nil
	}

	err = s.store.Update(func(current []models.Book) ([]models.Book, error) {
		unique, removed = Dedupe(current)
		return unique, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("removed", removed).Msg("Removed duplicate books from file")
	return unique, nil
}

func (s *CatalogService) List(opts models.ListOptions) ([]models.Book, error) {
	books, err := s.loadUnique()
	if err != nil {
		return nil, err
	}
	return s.sortBooks(filterBooks(books, opts), opts.SortBy, opts.Order), nil
}

func (s *CatalogService) Paginate(req models.PageRequest) (*models.Page, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = s.defaultPageSize
	}

	books, err := s.List(req.ListOptions)
	if err != nil {
		return nil, err
	}

	items := []models.Book{}
	// Compare page indexes, not offsets: (Page-1)*PageSize can overflow.
	pages := len(books) / req.PageSize
	if len(books)%req.PageSize != 0 {
		pages++
	}
	if req.Page-1 < pages {
		start := (req.Page - 1) * req.PageSize
		end := min(start+req.PageSize, len(books))
		items = books[start:end]
	}

	return &models.Page{
		Total:    len(books),
		Items:    items,
		Data:     items,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

func (s *CatalogService) Get(id string) (*models.Book, error) {
	books, err := s.loadUnique()
	if err != nil {
		return nil, err
	}
	if i := indexByID(books, id); i >= 0 {
		return &books[i], nil
	}
	return nil, models.NewNotFoundError("book not found")
}

func (s *CatalogService) Add(payload models.BookPayload) (*models.Book, error) {
	book, parseErr := sanitizeBook(payload)
	if book.ID == "" {
		book.ID = newBookID()
	}
	if err := validateBook(book, parseErr); err != nil {
		return nil, err
	}

	err := s.store.Update(func(current []models.Book) ([]models.Book, error) {
		books, _ := Dedupe(current)
		if indexByID(books, book.ID) >= 0 {
			return nil, models.NewConflictError("book id already exists")
		}
		if err := checkTitleAuthor(books, book, ""); err != nil {
			return nil, err
		}
		return append(books, book), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("book_id", book.ID).Str("title", book.Title).Msg("Book added")
	return &book, nil
}

func (s *CatalogService) Update(id string, payload models.BookPayload) (*models.Book, error) {
	var updated models.Book
	err := s.store.Update(func(current []models.Book) ([]models.Book, error) {
		books, _ := Dedupe(current)
		i := indexByID(books, id)
		if i < 0 {
			return nil, models.NewNotFoundError("book not found")
		}

		merged := mergePayload(payloadFromBook(books[i]), payload)
		merged.ID = models.Loose(id)
		book, parseErr := sanitizeBook(merged)
		if err := validateBook(book, parseErr); err != nil {
			return nil, err
		}
		if err := checkTitleAuthor(books, book, id); err != nil {
			return nil, err
		}

		books[i] = book
		updated = book
		return books, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("book_id", id).Msg("Book updated")
	return &updated, nil
}

func (s *CatalogService) Delete(id string) (*models.Book, error) {
	var removed models.Book
	err := s.store.Update(func(current []models.Book) ([]models.Book, error) {
		books, _ := Dedupe(current)
		i := indexByID(books, id)
		if i < 0 {
			return nil, models.NewNotFoundError("book not found")
		}
		removed = books[i]
		return slices.Delete(books, i, i+1), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("book_id", id).Msg("Book deleted")
	return &removed, nil
}

func (s *CatalogService) RawXML() ([]byte, error) {
	return s.store.Raw()
}

func filterBooks(books []models.Book, opts models.ListOptions) []models.Book {
	if opts.Keyword == "" {
		return books
	}
	field := opts.Field
	if field == "" {
		field = "title"
	}
	keyword := strings.ToLower(opts.Keyword)

	filtered := make([]models.Book, 0, len(books))
	for _, b := range books {
		value, _ := b.FieldValue(field)
		value = strings.ToLower(value)
		if opts.Mode == "exact" {
			if value == keyword {
				filtered = append(filtered, b)
			}
		} else if strings.Contains(value, keyword) {
			filtered = append(filtered, b)
		}
	}
	return filtered
}

// sortBooks sorts a copy of books by a whitelisted field. Ties keep their
// input order in both directions.
func (s *CatalogService) sortBooks(books []models.Book, sortBy, order string) []models.Book {
	field := sortBy
	if !slices.Contains(sortableFields, field) {
		field = "title"
	}
	sign := 1
	if order == "desc" {
		sign = -1
	}

	// collate.Collator keeps internal buffers and is not safe for concurrent use.
	col := collate.New(s.locale)
	sorted := slices.Clone(books)
	slices.SortStableFunc(sorted, func(a, b models.Book) int {
		return sign * compareField(col, a, b, field)
	})
	return sorted
}

func compareField(col *collate.Collator, a, b models.Book, field string) int {
	switch field {
	case "price":
		return compareFloat(a.Price, b.Price)
	case "stock":
		return compareFloat(float64(a.Stock), float64(b.Stock))
	}
	va, _ := a.FieldValue(field)
	vb, _ := b.FieldValue(field)
	return col.CompareString(va, vb)
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func indexByID(books []models.Book, id string) int {
	for i, b := range books {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func checkTitleAuthor(books []models.Book, book models.Book, ignoreID string) error {
	key := book.TitleAuthorKey()
	if key == "" {
		return nil
	}
	for _, b := range books {
		if b.TitleAuthorKey() == key && b.ID != ignoreID {
			return models.NewConflictError("a book with this title and author already exists")
		}
	}
	return nil
}

func newBookID() string {
	return "BK-" + strings.ToUpper(uuid.NewString()[:8])
}

func payloadFromBook(b models.Book) models.BookPayload {
	return models.BookPayload{
		ID:          models.Loose(b.ID),
		Title:       models.Loose(b.Title),
		Author:      models.Loose(b.Author),
		Category:    models.Loose(b.Category),
		Price:       models.Loose(strconv.FormatFloat(b.Price, 'f', -1, 64)),
		PublishYear: models.Loose(b.PublishYear),
		Stock:       models.Loose(strconv.Itoa(b.Stock)),
	}
}

func mergePayload(base, overlay models.BookPayload) models.BookPayload {
	pick := func(b, o models.LooseValue) models.LooseValue {
		if o.Set {
			return o
		}
		return b
	}
	base.ID = pick(base.ID, overlay.ID)
	base.Title = pick(base.Title, overlay.Title)
	base.Author = pick(base.Author, overlay.Author)
	base.Category = pick(base.Category, overlay.Category)
	base.Price = pick(base.Price, overlay.Price)
	base.Stock = pick(base.Stock, overlay.Stock)
	if overlay.PublishYear.Set {
		base.PublishYear = overlay.PublishYear
	} else if overlay.Published.Set {
		base.PublishYear = overlay.Published
	}
	return base
}

// sanitizeBook trims text fields and parses numeric ones. Blank numeric
// input means zero; the first unparseable numeric field is returned as a
// validation error alongside the partially filled book.
func sanitizeBook(p models.BookPayload) (models.Book, error) {
	year := p.PublishYear.Raw
	if strings.TrimSpace(year) == "" {
		year = p.Published.Raw
	}
	book := models.Book{
		ID:          strings.TrimSpace(p.ID.Raw),
		Title:       strings.TrimSpace(p.Title.Raw),
		Author:      strings.TrimSpace(p.Author.Raw),
		Category:    strings.TrimSpace(p.Category.Raw),
		PublishYear: strings.TrimSpace(year),
	}

	if raw := strings.TrimSpace(p.Price.Raw); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			return book, models.NewValidationError("price", "price must be a non-negative number")
		}
		book.Price = price
	}

	if raw := strings.TrimSpace(p.Stock.Raw); raw != "" {
		stock, err := parseStock(raw)
		if err != nil {
			return book, models.NewValidationError("stock", "stock must be a non-negative integer")
		}
		book.Stock = stock
	}
	return book, nil
}

func parseStock(raw string) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, strconv.ErrSyntax
	}
	return int(f), nil
}

func validateBook(b models.Book, parseErr error) error {
	if b.Title == "" {
		return models.NewValidationError("title", "title and author are required")
	}
	if b.Author == "" {
		return models.NewValidationError("author", "title and author are required")
	}
	if parseErr != nil {
		return parseErr
	}
	if b.Price < 0 {
		return models.NewValidationError("price", "price must be a non-negative number")
	}
	if b.Stock < 0 {
		return models.NewValidationError("stock", "stock must be a non-negative integer")
	}
	if b.PublishYear == "" {
		return models.NewValidationError("publishYear", "publish year is required")
	}
	return nil
}

package handlers

import (
	"net/http"
	"strconv"

	"library-catalog/internal/models"
	"library-catalog/internal/services"
	"library-catalog/internal/store"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type BookHandler struct {
	catalog *services.CatalogService
	logger  zerolog.Logger
}

func NewBookHandler(catalog *services.CatalogService, logger zerolog.Logger) *BookHandler {
	return &BookHandler{
		catalog: catalog,
		logger:  logger,
	}
}

func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))

	result, err := h.catalog.Paginate(models.PageRequest{
		ListOptions: listOptions(r),
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, http.StatusNotFound)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *BookHandler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalog.List(listOptions(r))
	if err != nil {
		respondWithServiceError(w, h.logger, err, http.StatusNotFound)
		return
	}

	respondWithJSON(w, http.StatusOK, models.SearchResult{Total: len(books), Data: books})
}

func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.catalog.Get(mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, h.logger, err, http.StatusNotFound)
		return
	}

	respondWithJSON(w, http.StatusOK, book)
}

func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var payload models.BookPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	book, err := h.catalog.Add(payload)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Book creation rejected")
		respondWithServiceError(w, h.logger, err, http.StatusBadRequest)
		return
	}

	respondWithJSON(w, http.StatusCreated, book)
}

func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	var payload models.BookPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	id := mux.Vars(r)["id"]
	book, err := h.catalog.Update(id, payload)
	if err != nil {
		h.logger.Warn().Err(err).Str("book_id", id).Msg("Book update rejected")
		respondWithServiceError(w, h.logger, err, http.StatusBadRequest)
		return
	}

	respondWithJSON(w, http.StatusOK, book)
}

func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	removed, err := h.catalog.Delete(mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, h.logger, err, http.StatusBadRequest)
		return
	}

	respondWithJSON(w, http.StatusOK, removed)
}

func (h *BookHandler) RawXML(w http.ResponseWriter, r *http.Request) {
	data, err := h.catalog.RawXML()
	if err != nil {
		respondWithServiceError(w, h.logger, err, http.StatusNotFound)
		return
	}

	respondWithXML(w, http.StatusOK, data)
}

func (h *BookHandler) Schema(w http.ResponseWriter, r *http.Request) {
	respondWithXML(w, http.StatusOK, store.BooksSchema)
}

func (h *BookHandler) XPathQuery(w http.ResponseWriter, r *http.Request) {
	data, err := h.catalog.Query(r.URL.Query().Get("expr"))
	if err != nil {
		respondWithServiceError(w, h.logger, err, http.StatusNotFound)
		return
	}

	respondWithXML(w, http.StatusOK, data)
}

func listOptions(r *http.Request) models.ListOptions {
	q := r.URL.Query()
	return models.ListOptions{
		Field:   q.Get("field"),
		Keyword: q.Get("keyword"),
		Mode:    q.Get("mode"),
		SortBy:  q.Get("sortBy"),
		Order:   q.Get("order"),
	}
}

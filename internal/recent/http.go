// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package recent

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/localmart/internal/platform/request"
	"github.com/taibuivan/localmart/internal/platform/respond"
	"github.com/taibuivan/localmart/internal/platform/sec"
	"github.com/taibuivan/localmart/internal/platform/storage"
	"github.com/taibuivan/localmart/internal/platform/validate"
	"github.com/taibuivan/localmart/pkg/slice"
)

// LocalScopes resolves a device's local storage. [tab.Scopes] satisfies it.
type LocalScopes interface {
	Local(claims *sec.TabClaims) storage.Store
}

// Handler exposes the recently-viewed list of the calling device.
type Handler struct {
	scopes LocalScopes
	now    func() time.Time
}

// NewHandler constructs a [Handler]. A nil now means [time.Now].
func NewHandler(scopes LocalScopes, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{scopes: scopes, now: now}
}

// Routes returns the recently-viewed endpoints. Every route requires a tab token.
//
// # Endpoints
//   - GET    /     : The list with age labels.
//   - POST   /     : Records a product view.
//   - DELETE /     : Clears the list.
//   - DELETE /{id} : Removes one product.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.list)
	router.Post("/", handler.upsert)
	router.Delete("/", handler.clear)
	router.Delete("/{id}", handler.remove)
	return router
}

// View is an [Entry] with its relative age label.
type View struct {
	Entry
	Age string `json:"age"`
}

// # Field Identifiers

const (
	FieldID    = "id"
	FieldTitle = "title"
	FieldPrice = "price"
)

func (handler *Handler) cache(request *http.Request) (*Cache, error) {
	claims, err := requestutil.RequiredTab(request)
	if err != nil {
		return nil, err
	}
	return NewCache(handler.scopes.Local(claims), handler.now), nil
}

func (handler *Handler) views(entries []Entry) []View {
	now := handler.now()
	views := slice.Map(entries, func(entry Entry) View {
		return View{Entry: entry, Age: FormatAge(entry.ViewedAt, now)}
	})
	if views == nil {
		views = []View{}
	}
	return views
}

/*
list returns the device's recently-viewed products.

GET /api/v1/recently-viewed

Response:
  - 200: []View (empty when nothing is stored or storage is corrupt)
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	cache, err := handler.cache(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, handler.views(cache.Read(request.Context())))
}

/*
upsert records a product view.

POST /api/v1/recently-viewed

Request:
  - Body: Entry (viewedAt is ignored and stamped by the server)

Response:
  - 200: []View (updated list)
  - 400: Missing id or title
*/
func (handler *Handler) upsert(writer http.ResponseWriter, request *http.Request) {
	cache, err := handler.cache(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Entry
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldID, input.ID).
		MaxLen(FieldID, input.ID, 128).
		Required(FieldTitle, input.Title).
		MaxLen(FieldTitle, input.Title, 300).
		Custom(FieldPrice, input.Price < 0, "Must not be negative")
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	entries, err := cache.Upsert(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, handler.views(entries))
}

/*
remove deletes one product from the list.

DELETE /api/v1/recently-viewed/{id}

Response:
  - 200: []View (updated list)
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	cache, err := handler.cache(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entries, err := cache.Remove(request.Context(), requestutil.Param(request, FieldID))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, handler.views(entries))
}

/*
clear deletes the whole list.

DELETE /api/v1/recently-viewed

Response:
  - 204
*/
func (handler *Handler) clear(writer http.ResponseWriter, request *http.Request) {
	cache, err := handler.cache(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := cache.Clear(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

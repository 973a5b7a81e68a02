package finance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/akozlov/fintrack-backend/internal/middleware"
	"github.com/akozlov/fintrack-backend/internal/models"
	"github.com/akozlov/fintrack-backend/internal/store"
	"github.com/akozlov/fintrack-backend/internal/token"
)

// HandlerSuite exercises the resource routes through the router and the
// auth guard, backed by the memory driver.
type HandlerSuite struct {
	suite.Suite
	router *chi.Mux
	db     *store.MemoryStore
	tokens *token.Service
}

func (s *HandlerSuite) SetupTest() {
	s.db = store.NewMemoryStore()
	s.tokens = token.New("test-secret", 0)
	h := NewHandler(s.db)
	requireAuth := middleware.RequireAuth(s.tokens, nil)

	r := chi.NewRouter()
	r.Route("/api/transactions", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.ListTransactions)
		r.Post("/", h.CreateTransaction)
		r.Post("/bulk", h.CreateTransactionsBulk)
		r.Delete("/bulk", h.DeleteTransactionsBulk)
		r.Get("/{id}", h.GetTransaction)
		r.Put("/{id}", h.UpdateTransaction)
		r.Delete("/{id}", h.DeleteTransaction)
	})
	r.Route("/api/categories", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})
	r.Route("/api/wallets", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.ListWallets)
		r.Post("/", h.CreateWallet)
		r.Put("/{id}", h.UpdateWallet)
		r.Delete("/{id}", h.DeleteWallet)
	})
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

// newUserToken creates a user directly in the store and returns a bearer
// token for it.
func (s *HandlerSuite) newUserToken(email, login string) string {
	u, err := s.db.CreateUser(s.T().Context(), email, login, "hash")
	require.NoError(s.T(), err)
	signed, err := s.tokens.Issue(u.ID)
	require.NoError(s.T(), err)
	return signed
}

func (s *HandlerSuite) do(method, path, bearer, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) createTransaction(bearer, body string) models.Transaction {
	rec := s.do(http.MethodPost, "/api/transactions", bearer, body)
	require.Equal(s.T(), http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	var t models.Transaction
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &t))
	return t
}

func (s *HandlerSuite) listTransactions(bearer string) []models.Transaction {
	rec := s.do(http.MethodGet, "/api/transactions", bearer, "")
	require.Equal(s.T(), http.StatusOK, rec.Code)
	var list []models.Transaction
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &list))
	return list
}

func (s *HandlerSuite) TestRejectsWithoutToken() {
	rec := s.do(http.MethodGet, "/api/transactions", "", "")
	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestListEmptyIsArray() {
	bearer := s.newUserToken("a@x.com", "alice")
	rec := s.do(http.MethodGet, "/api/transactions", bearer, "")
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), "[]\n", rec.Body.String())
}

func (s *HandlerSuite) TestCreateStringAmountBecomesNumber() {
	bearer := s.newUserToken("a@x.com", "alice")

	rec := s.do(http.MethodPost, "/api/transactions", bearer,
		`{"type":"expense","amount":"12.50","date":"2024-01-01","category":"food"}`)
	require.Equal(s.T(), http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	assert.Contains(s.T(), rec.Body.String(), `"amount":12.5`)
}

func (s *HandlerSuite) TestCreateValidation() {
	bearer := s.newUserToken("a@x.com", "alice")

	cases := []string{
		`{"type":"transfer","amount":1,"date":"2024-01-01"}`,
		`{"type":"expense","amount":"abc","date":"2024-01-01"}`,
		`{"type":"expense","amount":1,"date":"yesterday"}`,
		`{"type":"expense","date":"2024-01-01"}`,
		`{"type":"expense","amount":1}`,
	}
	for _, body := range cases {
		rec := s.do(http.MethodPost, "/api/transactions", bearer, body)
		assert.Equal(s.T(), http.StatusBadRequest, rec.Code, "body: %s", body)
	}
	assert.Empty(s.T(), s.listTransactions(bearer))
}

func (s *HandlerSuite) TestListSortedByDateDesc() {
	bearer := s.newUserToken("a@x.com", "alice")

	for _, day := range []string{"2024-01-03", "2024-01-10", "2024-01-05"} {
		s.createTransaction(bearer, fmt.Sprintf(
			`{"type":"expense","amount":1,"date":"%s"}`, day))
	}

	list := s.listTransactions(bearer)
	require.Len(s.T(), list, 3)
	assert.Equal(s.T(), 10, list[0].Date.Day())
	assert.Equal(s.T(), 5, list[1].Date.Day())
	assert.Equal(s.T(), 3, list[2].Date.Day())
}

func (s *HandlerSuite) TestCrossUserAccessIsNotFound() {
	alice := s.newUserToken("a@x.com", "alice")
	bob := s.newUserToken("b@x.com", "bob")

	tx := s.createTransaction(alice, `{"type":"expense","amount":10,"date":"2024-01-01"}`)
	path := fmt.Sprintf("/api/transactions/%d", tx.ID)

	assert.Equal(s.T(), http.StatusNotFound, s.do(http.MethodGet, path, bob, "").Code)
	assert.Equal(s.T(), http.StatusNotFound, s.do(http.MethodPut, path, bob, `{"amount":99}`).Code)
	assert.Equal(s.T(), http.StatusNotFound, s.do(http.MethodDelete, path, bob, "").Code)

	// Identical response for an id that does not exist at all.
	missing := s.do(http.MethodGet, "/api/transactions/99999", bob, "")
	theirs := s.do(http.MethodGet, path, bob, "")
	assert.Equal(s.T(), missing.Body.String(), theirs.Body.String())

	// Alice still sees her transaction unchanged.
	rec := s.do(http.MethodGet, path, alice, "")
	assert.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), `"amount":10`)
}

func (s *HandlerSuite) TestBulkCreateAtomic() {
	bearer := s.newUserToken("a@x.com", "alice")

	// One invalid amount rejects the whole batch.
	rec := s.do(http.MethodPost, "/api/transactions/bulk", bearer, `[
		{"type":"expense","amount":1,"date":"2024-01-01"},
		{"type":"expense","amount":2,"date":"2024-01-02"},
		{"type":"expense","amount":3,"date":"2024-01-03"},
		{"type":"expense","amount":"oops","date":"2024-01-04"}
	]`)
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
	assert.Empty(s.T(), s.listTransactions(bearer), "no partial state after a rejected batch")

	// A valid batch lands in full.
	rec = s.do(http.MethodPost, "/api/transactions/bulk", bearer, `[
		{"type":"expense","amount":1,"date":"2024-01-01"},
		{"type":"income","amount":2,"date":"2024-01-02"}
	]`)
	require.Equal(s.T(), http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	assert.Len(s.T(), s.listTransactions(bearer), 2)
}

func (s *HandlerSuite) TestBulkCreateRejectsNonList() {
	bearer := s.newUserToken("a@x.com", "alice")

	rec := s.do(http.MethodPost, "/api/transactions/bulk", bearer,
		`{"type":"expense","amount":1,"date":"2024-01-01"}`)
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestPartialUpdate() {
	bearer := s.newUserToken("a@x.com", "alice")
	tx := s.createTransaction(bearer,
		`{"type":"expense","amount":12.5,"date":"2024-01-01","category":"food","description":"pizza"}`)
	path := fmt.Sprintf("/api/transactions/%d", tx.ID)

	rec := s.do(http.MethodPut, path, bearer, `{"description":"sushi"}`)
	require.Equal(s.T(), http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var updated models.Transaction
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(s.T(), "sushi", updated.Description)
	assert.Equal(s.T(), 12.5, updated.Amount, "absent fields untouched")
	assert.Equal(s.T(), "food", updated.Category, "absent fields untouched")

	// Invalid present field rejects the whole update.
	rec = s.do(http.MethodPut, path, bearer, `{"amount":"abc","description":"x"}`)
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodPut, path, bearer, `{"date":"not-a-date"}`)
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)

	list := s.listTransactions(bearer)
	require.Len(s.T(), list, 1)
	assert.Equal(s.T(), "sushi", list[0].Description, "rejected update left no trace")
}

func (s *HandlerSuite) TestDelete() {
	bearer := s.newUserToken("a@x.com", "alice")
	tx := s.createTransaction(bearer, `{"type":"expense","amount":1,"date":"2024-01-01"}`)
	path := fmt.Sprintf("/api/transactions/%d", tx.ID)

	rec := s.do(http.MethodDelete, path, bearer, "")
	assert.Equal(s.T(), http.StatusNoContent, rec.Code)
	assert.Empty(s.T(), rec.Body.String(), "204 carries no body")

	assert.Equal(s.T(), http.StatusNotFound, s.do(http.MethodDelete, path, bearer, "").Code)
}

func (s *HandlerSuite) TestBulkDelete() {
	alice := s.newUserToken("a@x.com", "alice")
	bob := s.newUserToken("b@x.com", "bob")

	t1 := s.createTransaction(alice, `{"type":"expense","amount":1,"date":"2024-01-01"}`)
	t2 := s.createTransaction(alice, `{"type":"expense","amount":2,"date":"2024-01-02"}`)
	theirs := s.createTransaction(bob, `{"type":"expense","amount":3,"date":"2024-01-03"}`)

	body := fmt.Sprintf(`{"ids":[%d,%d,%d,99999]}`, t1.ID, t2.ID, theirs.ID)
	rec := s.do(http.MethodDelete, "/api/transactions/bulk", alice, body)
	require.Equal(s.T(), http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	assert.Contains(s.T(), rec.Body.String(), `"deleted":2`)

	assert.Empty(s.T(), s.listTransactions(alice))
	assert.Len(s.T(), s.listTransactions(bob), 1, "other user's rows untouched")
}

func (s *HandlerSuite) TestBulkDeleteValidation() {
	bearer := s.newUserToken("a@x.com", "alice")

	for _, body := range []string{`{"ids":[]}`, `{"ids":[-1,0,2.5]}`, `{}`} {
		rec := s.do(http.MethodDelete, "/api/transactions/bulk", bearer, body)
		assert.Equal(s.T(), http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

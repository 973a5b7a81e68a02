package finance

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akozlov/fintrack-backend/internal/models"
)

func (s *HandlerSuite) TestCategoryLifecycle() {
	alice := s.newUserToken("a@x.com", "alice")
	bob := s.newUserToken("b@x.com", "bob")

	rec := s.do(http.MethodPost, "/api/categories", alice, `{"name":"Food","type":"expense"}`)
	require.Equal(s.T(), http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	var c models.Category
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &c))

	// Categories are owner-scoped.
	rec = s.do(http.MethodGet, "/api/categories", bob, "")
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), "[]\n", rec.Body.String())

	path := fmt.Sprintf("/api/categories/%d", c.ID)
	rec = s.do(http.MethodPut, path, alice, `{"name":"Groceries","type":"expense"}`)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), "Groceries")

	assert.Equal(s.T(), http.StatusNotFound, s.do(http.MethodPut, path, bob, `{"name":"x","type":"income"}`).Code)
	assert.Equal(s.T(), http.StatusNotFound, s.do(http.MethodDelete, path, bob, "").Code)
	assert.Equal(s.T(), http.StatusNoContent, s.do(http.MethodDelete, path, alice, "").Code)
}

func (s *HandlerSuite) TestCategoryValidation() {
	bearer := s.newUserToken("a@x.com", "alice")

	for _, body := range []string{`{"type":"expense"}`, `{"name":"Food"}`, `{"name":"Food","type":"other"}`} {
		rec := s.do(http.MethodPost, "/api/categories", bearer, body)
		assert.Equal(s.T(), http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func (s *HandlerSuite) TestWalletLifecycle() {
	alice := s.newUserToken("a@x.com", "alice")
	bob := s.newUserToken("b@x.com", "bob")

	rec := s.do(http.MethodPost, "/api/wallets", alice, `{"name":"Cash","balance":"100.50"}`)
	require.Equal(s.T(), http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var w models.Wallet
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &w))
	assert.Equal(s.T(), 100.5, w.Balance)
	assert.Equal(s.T(), "RUB", w.Currency, "default currency")

	path := fmt.Sprintf("/api/wallets/%d", w.ID)
	rec = s.do(http.MethodPut, path, alice, `{"name":"Cash","currency":"USD"}`)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &w))
	assert.Equal(s.T(), "USD", w.Currency)
	assert.Equal(s.T(), 100.5, w.Balance, "omitted balance unchanged")

	assert.Equal(s.T(), http.StatusNotFound, s.do(http.MethodDelete, path, bob, "").Code)
	assert.Equal(s.T(), http.StatusNoContent, s.do(http.MethodDelete, path, alice, "").Code)
}

func (s *HandlerSuite) TestWalletValidation() {
	bearer := s.newUserToken("a@x.com", "alice")

	for _, body := range []string{`{}`, `{"name":"Cash","currency":"RUBLE"}`, `{"name":"Cash","balance":"abc"}`} {
		rec := s.do(http.MethodPost, "/api/wallets", bearer, body)
		assert.Equal(s.T(), http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

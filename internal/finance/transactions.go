package finance

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/akozlov/fintrack-backend/internal/httpx"
	"github.com/akozlov/fintrack-backend/internal/middleware"
	"github.com/akozlov/fintrack-backend/internal/models"
	"github.com/akozlov/fintrack-backend/internal/store"
)

// ListTransactions returns all transactions of the current user, most
// recent date first.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	list, err := h.store.ListTransactions(r.Context(), userID)
	if err != nil {
		log.Printf("list transactions: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "failed to fetch transactions")
		return
	}
	if list == nil {
		list = []models.Transaction{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

// GetTransaction returns a single owned transaction.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Transaction not found")
		return
	}

	t, err := h.store.GetTransaction(r.Context(), userID, id)
	if errors.Is(err, store.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, "Transaction not found")
		return
	}
	if err != nil {
		log.Printf("get transaction: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "failed to fetch transaction")
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

// CreateTransaction persists a new transaction owned by the caller.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req models.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := req.Validate()
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	t.UserID = userID

	created, err := h.store.CreateTransaction(r.Context(), t)
	if err != nil {
		log.Printf("create transaction: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// CreateTransactionsBulk persists a batch of transactions as one atomic
// unit: one invalid item rejects the whole batch with nothing persisted.
func (h *Handler) CreateTransactionsBulk(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var reqs []models.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		httpx.Error(w, http.StatusBadRequest, "expected a list of transactions")
		return
	}
	if len(reqs) == 0 {
		httpx.Error(w, http.StatusBadRequest, "transactions list is empty")
		return
	}

	ts := make([]*models.Transaction, 0, len(reqs))
	for _, req := range reqs {
		t, err := req.Validate()
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		t.UserID = userID
		ts = append(ts, t)
	}

	created, err := h.store.CreateTransactions(r.Context(), ts)
	if err != nil {
		log.Printf("bulk create transactions: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "failed to create transactions")
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// UpdateTransaction applies a partial update to an owned transaction. Only
// fields present in the body change.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var patch models.TransactionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := patch.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.store.UpdateTransaction(r.Context(), userID, id, &patch)
	if errors.Is(err, store.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, "Transaction not found")
		return
	}
	if err != nil {
		log.Printf("update transaction: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "failed to update transaction")
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

// DeleteTransaction removes an owned transaction.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Transaction not found")
		return
	}

	err = h.store.DeleteTransaction(r.Context(), userID, id)
	if errors.Is(err, store.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, "Transaction not found")
		return
	}
	if err != nil {
		log.Printf("delete transaction: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTransactionsBulk removes every owned transaction in the id set and
// reports how many rows were actually deleted. Ids that don't belong to the
// caller are skipped, not an error.
func (h *Handler) DeleteTransactionsBulk(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req models.DeleteBulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ids := req.ValidIDs()
	if len(ids) == 0 {
		httpx.Error(w, http.StatusBadRequest, "ids must contain at least one positive integer")
		return
	}

	deleted, err := h.store.DeleteTransactions(r.Context(), userID, ids)
	if err != nil {
		log.Printf("bulk delete transactions: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "failed to delete transactions")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

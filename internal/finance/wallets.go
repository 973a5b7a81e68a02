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

const defaultCurrency = "RUB"

func (h *Handler) ListWallets(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	list, err := h.store.ListWallets(r.Context(), userID)
	if err != nil {
		log.Printf("list wallets: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "failed to fetch wallets")
		return
	}
	if list == nil {
		list = []models.Wallet{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req models.WalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	wallet := &models.Wallet{
		UserID:   userID,
		Name:     req.Name,
		Currency: req.Currency,
	}
	if req.Balance != nil {
		wallet.Balance = models.RoundBalance(float64(*req.Balance))
	}
	if wallet.Currency == "" {
		wallet.Currency = defaultCurrency
	}

	created, err := h.store.CreateWallet(r.Context(), wallet)
	if err != nil {
		log.Printf("create wallet: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "failed to create wallet")
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateWallet(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid wallet id")
		return
	}

	var req models.WalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	wallet, err := h.store.UpdateWallet(r.Context(), userID, id, &req)
	if errors.Is(err, store.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, "Wallet not found")
		return
	}
	if err != nil {
		log.Printf("update wallet: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "failed to update wallet")
		return
	}
	httpx.JSON(w, http.StatusOK, wallet)
}

func (h *Handler) DeleteWallet(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Wallet not found")
		return
	}

	err = h.store.DeleteWallet(r.Context(), userID, id)
	if errors.Is(err, store.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, "Wallet not found")
		return
	}
	if err != nil {
		log.Printf("delete wallet: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "failed to delete wallet")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

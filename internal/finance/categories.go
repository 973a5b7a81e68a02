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

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	list, err := h.store.ListCategories(r.Context(), userID)
	if err != nil {
		log.Printf("list categories: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}
	if list == nil {
		list = []models.Category{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req models.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.store.CreateCategory(r.Context(), &models.Category{
		UserID:   userID,
		Name:     req.Name,
		Type:     req.Type,
		ParentID: req.ParentID,
	})
	if err != nil {
		log.Printf("create category: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	var req models.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.store.UpdateCategory(r.Context(), userID, id, &req)
	if errors.Is(err, store.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, "Category not found")
		return
	}
	if err != nil {
		log.Printf("update category: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "failed to update category")
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Category not found")
		return
	}

	err = h.store.DeleteCategory(r.Context(), userID, id)
	if errors.Is(err, store.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, "Category not found")
		return
	}
	if err != nil {
		log.Printf("delete category: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "failed to delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

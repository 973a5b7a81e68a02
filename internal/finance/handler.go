// Package finance holds the owner-scoped resource handlers. Every route in
// this package sits behind middleware.RequireAuth; the user id always comes
// from the request context, never from the request body.
package finance

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akozlov/fintrack-backend/internal/models"
)

// Store defines the interface for resource persistence. Implementations
// must evaluate the user-id filter as part of each query predicate, so an
// ownership miss is indistinguishable from a missing row.
type Store interface {
	ListTransactions(ctx context.Context, userID int64) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, userID, id int64) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, t *models.Transaction) (*models.Transaction, error)
	CreateTransactions(ctx context.Context, ts []*models.Transaction) ([]*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id int64, patch *models.TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id int64) error
	DeleteTransactions(ctx context.Context, userID int64, ids []int64) (int64, error)

	ListCategories(ctx context.Context, userID int64) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID, id int64, req *models.CategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, id int64) error

	ListWallets(ctx context.Context, userID int64) ([]models.Wallet, error)
	CreateWallet(ctx context.Context, w *models.Wallet) (*models.Wallet, error)
	UpdateWallet(ctx context.Context, userID, id int64, req *models.WalletRequest) (*models.Wallet, error)
	DeleteWallet(ctx context.Context, userID, id int64) error
}

// Handler holds the transaction, category, and wallet HTTP handlers.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

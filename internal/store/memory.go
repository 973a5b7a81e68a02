package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/akozlov/fintrack-backend/internal/models"
)

// MemoryStore is an in-process storage driver with the same surface as
// SQLStore. It backs local development and tests; selected with
// DB_DRIVER=memory.
type MemoryStore struct {
	mu sync.Mutex

	users        map[int64]*models.User
	transactions map[int64]*models.Transaction
	categories   map[int64]*models.Category
	wallets      map[int64]*models.Wallet

	nextUserID        int64
	nextTransactionID int64
	nextCategoryID    int64
	nextWalletID      int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[int64]*models.User),
		transactions: make(map[int64]*models.Transaction),
		categories:   make(map[int64]*models.Category),
		wallets:      make(map[int64]*models.Wallet),
	}
}

func (s *MemoryStore) Close() error { return nil }

// ── Users ────────────────────────────────────────────────

func (s *MemoryStore) CreateUser(_ context.Context, email, login, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUserID++
	u := &models.User{
		ID:           s.nextUserID,
		Email:        email,
		Login:        login,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) FindUser(_ context.Context, identifier string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, identifier) || u.Login == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) UserTaken(_ context.Context, email, login string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) || u.Login == login {
			return true, nil
		}
	}
	return false, nil
}

// ── Transactions ─────────────────────────────────────────

func (s *MemoryStore) insertTransaction(t *models.Transaction) {
	s.nextTransactionID++
	t.ID = s.nextTransactionID
	t.CreatedAt = time.Now().UTC()
	cp := *t
	s.transactions[t.ID] = &cp
}

func (s *MemoryStore) ListTransactions(_ context.Context, userID int64) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []models.Transaction
	for _, t := range s.transactions {
		if t.UserID == userID {
			list = append(list, *t)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.After(list[j].Date)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (s *MemoryStore) GetTransaction(_ context.Context, userID, id int64) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) CreateTransaction(_ context.Context, t *models.Transaction) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertTransaction(t)
	return t, nil
}

func (s *MemoryStore) CreateTransactions(_ context.Context, ts []*models.Transaction) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Single critical section, so the batch is all-or-nothing.
	for _, t := range ts {
		s.insertTransaction(t)
	}
	return ts, nil
}

func (s *MemoryStore) UpdateTransaction(_ context.Context, userID, id int64, patch *models.TransactionPatch) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return nil, ErrNotFound
	}
	patch.Apply(t)
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) DeleteTransaction(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *MemoryStore) DeleteTransactions(_ context.Context, userID int64, ids []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		if t, ok := s.transactions[id]; ok && t.UserID == userID {
			delete(s.transactions, id)
			deleted++
		}
	}
	return deleted, nil
}

// ── Categories ───────────────────────────────────────────

func (s *MemoryStore) ListCategories(_ context.Context, userID int64) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []models.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			list = append(list, *c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *MemoryStore) CreateCategory(_ context.Context, c *models.Category) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCategoryID++
	c.ID = s.nextCategoryID
	c.CreatedAt = time.Now().UTC()
	cp := *c
	s.categories[c.ID] = &cp
	return c, nil
}

func (s *MemoryStore) UpdateCategory(_ context.Context, userID, id int64, req *models.CategoryRequest) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	c.Name = req.Name
	c.Type = req.Type
	c.ParentID = req.ParentID
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) DeleteCategory(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

// ── Wallets ──────────────────────────────────────────────

func (s *MemoryStore) ListWallets(_ context.Context, userID int64) ([]models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []models.Wallet
	for _, w := range s.wallets {
		if w.UserID == userID {
			list = append(list, *w)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *MemoryStore) CreateWallet(_ context.Context, w *models.Wallet) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextWalletID++
	w.ID = s.nextWalletID
	w.CreatedAt = time.Now().UTC()
	cp := *w
	s.wallets[w.ID] = &cp
	return w, nil
}

func (s *MemoryStore) UpdateWallet(_ context.Context, userID, id int64, req *models.WalletRequest) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[id]
	if !ok || w.UserID != userID {
		return nil, ErrNotFound
	}
	w.Name = req.Name
	if req.Balance != nil {
		w.Balance = models.RoundBalance(float64(*req.Balance))
	}
	if req.Currency != "" {
		w.Currency = req.Currency
	}
	cp := *w
	return &cp, nil
}

func (s *MemoryStore) DeleteWallet(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[id]
	if !ok || w.UserID != userID {
		return ErrNotFound
	}
	delete(s.wallets, id)
	return nil
}

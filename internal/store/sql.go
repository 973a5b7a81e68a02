package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/akozlov/fintrack-backend/internal/models"
)

// SQLStore persists users, transactions, categories, and wallets through
// database/sql. The same query text runs against PostgreSQL (pgx) and
// SQLite (modernc); queries are written with ? placeholders and rebound to
// $N for postgres.
type SQLStore struct {
	db       *sql.DB
	postgres bool
}

// OpenSQL opens a database connection for the given driver ("postgres" or
// "sqlite") and pings it.
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	var name string
	switch driver {
	case "postgres":
		name = "pgx"
	case "sqlite":
		name = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// In-memory sqlite databases vanish per-connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &SQLStore{db: db, postgres: driver == "postgres"}, nil
}

// Close closes the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// q rebinds ? placeholders to $N for postgres.
func (s *SQLStore) q(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var pgMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		email         VARCHAR(255) UNIQUE NOT NULL,
		login         VARCHAR(100) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id          BIGSERIAL PRIMARY KEY,
		user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type        VARCHAR(10) NOT NULL,
		amount      NUMERIC(12,2) NOT NULL,
		date        TIMESTAMPTZ NOT NULL,
		category    VARCHAR(100) NOT NULL DEFAULT '',
		subcategory VARCHAR(100) NOT NULL DEFAULT '',
		description VARCHAR(500) NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name       VARCHAR(100) NOT NULL,
		type       VARCHAR(10) NOT NULL,
		parent_id  BIGINT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name       VARCHAR(100) NOT NULL,
		balance    NUMERIC(12,2) NOT NULL DEFAULT 0,
		currency   VARCHAR(3) NOT NULL DEFAULT 'RUB',
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		email         TEXT UNIQUE NOT NULL,
		login         TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type        TEXT NOT NULL,
		amount      REAL NOT NULL,
		date        TIMESTAMP NOT NULL,
		category    TEXT NOT NULL DEFAULT '',
		subcategory TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		type       TEXT NOT NULL,
		parent_id  INTEGER,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		balance    REAL NOT NULL DEFAULT 0,
		currency   TEXT NOT NULL DEFAULT 'RUB',
		created_at TIMESTAMP NOT NULL
	)`,
}

// Migrate creates the schema if it doesn't exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	migrations := sqliteMigrations
	if s.postgres {
		migrations = pgMigrations
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// ── Users ────────────────────────────────────────────────

func (s *SQLStore) CreateUser(ctx context.Context, email, login, passwordHash string) (*models.User, error) {
	u := models.User{
		Email:        email,
		Login:        login,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	err := s.db.QueryRowContext(ctx,
		s.q(`INSERT INTO users (email, login, password_hash, created_at)
		     VALUES (?, ?, ?, ?) RETURNING id`),
		u.Email, u.Login, u.PasswordHash, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// FindUser looks a user up by email or login.
func (s *SQLStore) FindUser(ctx context.Context, identifier string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT id, email, login, password_hash, created_at
		     FROM users WHERE email = ? OR login = ?`),
		identifier, identifier,
	).Scan(&u.ID, &u.Email, &u.Login, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT id, email, login, password_hash, created_at
		     FROM users WHERE id = ?`), id,
	).Scan(&u.ID, &u.Email, &u.Login, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserTaken reports whether a user with the given email or login exists.
func (s *SQLStore) UserTaken(ctx context.Context, email, login string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT COUNT(*) FROM users WHERE email = ? OR login = ?`),
		email, login,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── Transactions ─────────────────────────────────────────

const transactionColumns = `id, user_id, type, amount, date, category, subcategory, description, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Date,
		&t.Category, &t.Subcategory, &t.Description, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLStore) ListTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT `+transactionColumns+` FROM transactions
		     WHERE user_id = ? ORDER BY date DESC, id DESC`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	return list, rows.Err()
}

func (s *SQLStore) GetTransaction(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx,
		s.q(`SELECT `+transactionColumns+` FROM transactions
		     WHERE id = ? AND user_id = ?`), id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *SQLStore) insertTransaction(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, t *models.Transaction) error {
	t.CreatedAt = time.Now().UTC()
	return q.QueryRowContext(ctx,
		s.q(`INSERT INTO transactions (user_id, type, amount, date, category, subcategory, description, created_at)
		     VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		t.UserID, t.Type, t.Amount, t.Date, t.Category, t.Subcategory, t.Description, t.CreatedAt,
	).Scan(&t.ID)
}

func (s *SQLStore) CreateTransaction(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	if err := s.insertTransaction(ctx, s.db, t); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

// CreateTransactions inserts all transactions in a single database
// transaction; either every row is persisted or none is.
func (s *SQLStore) CreateTransactions(ctx context.Context, ts []*models.Transaction) ([]*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for _, t := range ts {
		if err := s.insertTransaction(ctx, tx, t); err != nil {
			return nil, fmt.Errorf("bulk create: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ts, nil
}

func (s *SQLStore) UpdateTransaction(ctx context.Context, userID, id int64, patch *models.TransactionPatch) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	t, err := scanTransaction(tx.QueryRowContext(ctx,
		s.q(`SELECT `+transactionColumns+` FROM transactions
		     WHERE id = ? AND user_id = ?`), id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	patch.Apply(t)
	_, err = tx.ExecContext(ctx,
		s.q(`UPDATE transactions
		     SET type = ?, amount = ?, date = ?, category = ?, subcategory = ?, description = ?
		     WHERE id = ? AND user_id = ?`),
		t.Type, t.Amount, t.Date, t.Category, t.Subcategory, t.Description, id, userID)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *SQLStore) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM transactions WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTransactions removes every owned transaction whose id is in ids and
// returns the number actually deleted.
func (s *SQLStore) DeleteTransactions(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?, ", len(ids))
	placeholders = placeholders[:len(placeholders)-2]

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM transactions WHERE user_id = ? AND id IN (`+placeholders+`)`),
		args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ── Categories ───────────────────────────────────────────

func (s *SQLStore) ListCategories(ctx context.Context, userID int64) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, user_id, name, type, parent_id, created_at
		     FROM categories WHERE user_id = ? ORDER BY id`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.ParentID, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (s *SQLStore) CreateCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	c.CreatedAt = time.Now().UTC()
	err := s.db.QueryRowContext(ctx,
		s.q(`INSERT INTO categories (user_id, name, type, parent_id, created_at)
		     VALUES (?, ?, ?, ?, ?) RETURNING id`),
		c.UserID, c.Name, c.Type, c.ParentID, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *SQLStore) UpdateCategory(ctx context.Context, userID, id int64, req *models.CategoryRequest) (*models.Category, error) {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE categories SET name = ?, type = ?, parent_id = ?
		     WHERE id = ? AND user_id = ?`),
		req.Name, req.Type, req.ParentID, id, userID)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	var c models.Category
	err = s.db.QueryRowContext(ctx,
		s.q(`SELECT id, user_id, name, type, parent_id, created_at
		     FROM categories WHERE id = ?`), id,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.ParentID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLStore) DeleteCategory(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM categories WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ── Wallets ──────────────────────────────────────────────

func (s *SQLStore) ListWallets(ctx context.Context, userID int64) ([]models.Wallet, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, user_id, name, balance, currency, created_at
		     FROM wallets WHERE user_id = ? ORDER BY id`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Wallet
	for rows.Next() {
		var w models.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Balance, &w.Currency, &w.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

func (s *SQLStore) CreateWallet(ctx context.Context, w *models.Wallet) (*models.Wallet, error) {
	w.CreatedAt = time.Now().UTC()
	err := s.db.QueryRowContext(ctx,
		s.q(`INSERT INTO wallets (user_id, name, balance, currency, created_at)
		     VALUES (?, ?, ?, ?, ?) RETURNING id`),
		w.UserID, w.Name, w.Balance, w.Currency, w.CreatedAt,
	).Scan(&w.ID)
	if err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	return w, nil
}

func (s *SQLStore) UpdateWallet(ctx context.Context, userID, id int64, req *models.WalletRequest) (*models.Wallet, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var w models.Wallet
	err = tx.QueryRowContext(ctx,
		s.q(`SELECT id, user_id, name, balance, currency, created_at
		     FROM wallets WHERE id = ? AND user_id = ?`), id, userID,
	).Scan(&w.ID, &w.UserID, &w.Name, &w.Balance, &w.Currency, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	w.Name = req.Name
	if req.Balance != nil {
		w.Balance = models.RoundBalance(float64(*req.Balance))
	}
	if req.Currency != "" {
		w.Currency = req.Currency
	}

	_, err = tx.ExecContext(ctx,
		s.q(`UPDATE wallets SET name = ?, balance = ?, currency = ?
		     WHERE id = ? AND user_id = ?`),
		w.Name, w.Balance, w.Currency, id, userID)
	if err != nil {
		return nil, fmt.Errorf("update wallet: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *SQLStore) DeleteWallet(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM wallets WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

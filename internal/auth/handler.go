package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/akozlov/fintrack-backend/internal/httpx"
	"github.com/akozlov/fintrack-backend/internal/middleware"
	"github.com/akozlov/fintrack-backend/internal/models"
	"github.com/akozlov/fintrack-backend/internal/token"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, email, login, passwordHash string) (*models.User, error)
	FindUser(ctx context.Context, identifier string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UserTaken(ctx context.Context, email, login string) (bool, error)
}

// Handler holds the auth HTTP handlers.
type Handler struct {
	users      UserStore
	tokens     *token.Service
	revoked    *RevocationList // nil when Redis is not configured
	bcryptCost int
}

func NewHandler(users UserStore, tokens *token.Service, revoked *RevocationList, bcryptCost int) *Handler {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Handler{users: users, tokens: tokens, revoked: revoked, bcryptCost: bcryptCost}
}

// Register creates a new user and issues a token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Login == "" || req.Password == "" {
		httpx.Error(w, http.StatusBadRequest, "email, login, and password are required")
		return
	}

	taken, err := h.users.UserTaken(r.Context(), req.Email, req.Login)
	if err != nil {
		log.Printf("register: user lookup: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	if taken {
		httpx.Error(w, http.StatusBadRequest, "User already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		log.Printf("register: hash password: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Email, req.Login, string(hashed))
	if err != nil {
		log.Printf("register: create user: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	signed, err := h.tokens.Issue(user.ID)
	if err != nil {
		log.Printf("register: issue token: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	httpx.JSON(w, http.StatusCreated, models.AuthResponse{
		Message: "User created successfully",
		Token:   signed,
		User:    user.Public(),
	})
}

// Login authenticates by email or login name and issues a token. The error
// body is identical for an unknown identifier and a wrong password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.FindUser(r.Context(), req.Login)
	if err != nil || user == nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	signed, err := h.tokens.Issue(user.ID)
	if err != nil {
		log.Printf("login: issue token: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	httpx.JSON(w, http.StatusOK, models.AuthResponse{
		Message: "Logged in successfully",
		Token:   signed,
		User:    user.Public(),
	})
}

// Logout revokes the presented token until its natural expiry. Without a
// revocation list the endpoint still succeeds; the client just discards the
// token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.revoked != nil {
		id, ok := middleware.IdentityFrom(r.Context())
		if !ok {
			httpx.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if err := h.revoked.Revoke(r.Context(), id.TokenID, id.ExpiresAt); err != nil {
			log.Printf("logout: revoke token: %v", err)
			httpx.Error(w, http.StatusInternalServerError, "something went wrong")
			return
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "user not found")
		return
	}

	httpx.JSON(w, http.StatusOK, user.Public())
}

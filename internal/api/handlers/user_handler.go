package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/codershubham350/discover-places-backend/internal/application/services"
	"github.com/codershubham350/discover-places-backend/internal/domain/entities"
	apperrors "github.com/codershubham350/discover-places-backend/pkg/errors"
)

// UserService defines the account operations used by the handler.
type UserService interface {
	ListUsers(ctx context.Context) ([]*entities.User, error)
	Signup(ctx context.Context, input services.SignupInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service  UserService
	uploader *ImageUploader
}

// NewUserHandler creates a new user handler
func NewUserHandler(service UserService, uploader *ImageUploader) *UserHandler {
	return &UserHandler{
		service:  service,
		uploader: uploader,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) error {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		return err
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"users": users})
	return nil
}

// Signup handles POST /api/users/signup (multipart: name, email, password, image)
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) error {
	if err := h.uploader.ParseForm(w, r); err != nil {
		return err
	}
	image, err := h.uploader.Save(r, "image")
	if err != nil {
		return err
	}

	result, err := h.service.Signup(r.Context(), services.SignupInput{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Image:    image,
	})
	if err != nil {
		return err
	}

	respondWithJSON(w, http.StatusCreated, result)
	return nil
}

// Login handles POST /api/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.NewValidationError(invalidInputMessage)
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	respondWithJSON(w, http.StatusOK, result)
	return nil
}

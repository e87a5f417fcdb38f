package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/codershubham350/discover-places-backend/internal/api/middleware"
	"github.com/codershubham350/discover-places-backend/internal/application/services"
	"github.com/codershubham350/discover-places-backend/internal/domain/entities"
	apperrors "github.com/codershubham350/discover-places-backend/pkg/errors"
)

const invalidInputMessage = "Invalid input passed, please check your data."

// PlaceService defines the place operations used by the handler.
type PlaceService interface {
	GetPlaceByID(ctx context.Context, id string) (*entities.Place, error)
	GetPlacesByUserID(ctx context.Context, userID string) ([]*entities.Place, error)
	CreatePlace(ctx context.Context, input services.CreatePlaceInput) (*entities.Place, error)
	UpdatePlace(ctx context.Context, placeID, callerID string, input services.UpdatePlaceInput) (*entities.Place, error)
	DeletePlace(ctx context.Context, placeID, callerID string) error
}

// PlaceHandler handles place-related HTTP requests
type PlaceHandler struct {
	service  PlaceService
	uploader *ImageUploader
}

// NewPlaceHandler creates a new place handler
func NewPlaceHandler(service PlaceService, uploader *ImageUploader) *PlaceHandler {
	return &PlaceHandler{
		service:  service,
		uploader: uploader,
	}
}

type placeResponse struct {
	Place *entities.Place `json:"place"`
}

type placesResponse struct {
	Places []*entities.Place `json:"places"`
}

type updatePlaceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// GetByID handles GET /api/places/{pid}
func (h *PlaceHandler) GetByID(w http.ResponseWriter, r *http.Request) error {
	place, err := h.service.GetPlaceByID(r.Context(), r.PathValue("pid"))
	if err != nil {
		return err
	}
	respondWithJSON(w, http.StatusOK, placeResponse{Place: place})
	return nil
}

// ListByUser handles GET /api/places/user/{uid}
func (h *PlaceHandler) ListByUser(w http.ResponseWriter, r *http.Request) error {
	places, err := h.service.GetPlacesByUserID(r.Context(), r.PathValue("uid"))
	if err != nil {
		return err
	}
	respondWithJSON(w, http.StatusOK, placesResponse{Places: places})
	return nil
}

// Create handles POST /api/places (multipart: title, description, address, image)
func (h *PlaceHandler) Create(w http.ResponseWriter, r *http.Request) error {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return apperrors.NewUnauthorizedError("Authentication failed!")
	}

	if err := h.uploader.ParseForm(w, r); err != nil {
		return err
	}
	image, err := h.uploader.Save(r, "image")
	if err != nil {
		return err
	}

	place, err := h.service.CreatePlace(r.Context(), services.CreatePlaceInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Address:     r.FormValue("address"),
		Image:       image,
		CreatorID:   userID,
	})
	if err != nil {
		return err
	}

	respondWithJSON(w, http.StatusCreated, placeResponse{Place: place})
	return nil
}

// Update handles PATCH /api/places/{pid}
func (h *PlaceHandler) Update(w http.ResponseWriter, r *http.Request) error {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return apperrors.NewUnauthorizedError("Authentication failed!")
	}

	// An undecodable body is passed on as empty input: the service checks
	// ownership first and then rejects it as invalid.
	var req updatePlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = updatePlaceRequest{}
	}

	place, err := h.service.UpdatePlace(r.Context(), r.PathValue("pid"), userID, services.UpdatePlaceInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	respondWithJSON(w, http.StatusOK, placeResponse{Place: place})
	return nil
}

// Delete handles DELETE /api/places/{pid}
func (h *PlaceHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return apperrors.NewUnauthorizedError("Authentication failed!")
	}

	if err := h.service.DeletePlace(r.Context(), r.PathValue("pid"), userID); err != nil {
		return err
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Deleted place."})
	return nil
}

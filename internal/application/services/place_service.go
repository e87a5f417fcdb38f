package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/codershubham350/discover-places-backend/internal/domain/entities"
	"github.com/codershubham350/discover-places-backend/internal/domain/providers"
	"github.com/codershubham350/discover-places-backend/internal/domain/repositories"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/observability"
	apperrors "github.com/codershubham350/discover-places-backend/pkg/errors"
)

// CreatePlaceInput is the payload for a new place. Image is the stored
// upload path and CreatorID comes from the verified token.
type CreatePlaceInput struct {
	Title       string `validate:"required"`
	Description string `validate:"required,min=5"`
	Address     string `validate:"required"`
	Image       string `validate:"required"`
	CreatorID   string
}

// UpdatePlaceInput holds the mutable fields of a place
type UpdatePlaceInput struct {
	Title       string `validate:"required"`
	Description string `validate:"required,min=5"`
}

// PlaceService handles business logic for places
type PlaceService struct {
	places   repositories.PlaceRepository
	users    repositories.UserRepository
	geocoder providers.GeolocationProvider
	files    providers.FileStorage
}

// NewPlaceService creates a new place service
func NewPlaceService(
	places repositories.PlaceRepository,
	users repositories.UserRepository,
	geocoder providers.GeolocationProvider,
	files providers.FileStorage,
) *PlaceService {
	return &PlaceService{
		places:   places,
		users:    users,
		geocoder: geocoder,
		files:    files,
	}
}

// GetPlaceByID retrieves a place by ID
func (s *PlaceService) GetPlaceByID(ctx context.Context, id string) (*entities.Place, error) {
	place, err := s.places.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFoundError("Could not find a place for the provided id.")
		}
		return nil, err
	}
	return place, nil
}

// GetPlacesByUserID lists a user's places in the order they were added
func (s *PlaceService) GetPlacesByUserID(ctx context.Context, userID string) ([]*entities.Place, error) {
	places, err := s.places.ListByUser(ctx, userID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFoundError("Could not find places for the provided user id.")
		}
		return nil, err
	}
	return places, nil
}

// CreatePlace validates the input, geocodes the address and stores the place
// together with the creator's place list entry.
func (s *PlaceService) CreatePlace(ctx context.Context, input CreatePlaceInput) (*entities.Place, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Address = strings.TrimSpace(input.Address)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	coords, err := s.geocoder.Geocode(ctx, input.Address)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, input.CreatorID); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFoundError("Could not find user for provided id")
		}
		return nil, apperrors.NewInternalError("Creating place failed, please try again.", err)
	}

	place := &entities.Place{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: input.Description,
		Address:     input.Address,
		Location:    entities.Location{Lat: coords.Latitude, Lng: coords.Longitude},
		Image:       input.Image,
		CreatorID:   input.CreatorID,
	}

	if err := s.places.CreateForUser(ctx, place); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().Str("place_id", place.ID).Str("user_id", place.CreatorID).Msg("place created")
	return place, nil
}

// UpdatePlace changes title and description of a place owned by callerID
func (s *PlaceService) UpdatePlace(ctx context.Context, placeID, callerID string, input UpdatePlaceInput) (*entities.Place, error) {
	place, err := s.places.GetByID(ctx, placeID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFoundError("Could not find a place for the provided id.")
		}
		return nil, apperrors.NewInternalError("Something went wrong, could not update place", err)
	}

	// Ownership is checked before the payload so a non-owner always gets
	// Forbidden.
	if !place.IsOwnedBy(callerID) {
		return nil, apperrors.NewForbiddenError("You are not allowed to update this place")
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	place.Title = input.Title
	place.Description = input.Description

	if err := s.places.Update(ctx, place); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFoundError("Could not find a place for the provided id.")
		}
		return nil, apperrors.NewInternalError("Something went wrong, could not update place", err)
	}
	return place, nil
}

// DeletePlace removes a place owned by callerID, then its image.
func (s *PlaceService) DeletePlace(ctx context.Context, placeID, callerID string) error {
	place, err := s.places.GetByID(ctx, placeID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return apperrors.NewNotFoundError("Could not find place associated with this id")
		}
		return apperrors.NewInternalError("Something went wrong, could not delete place", err)
	}

	if !place.IsOwnedBy(callerID) {
		return apperrors.NewForbiddenError("You are not allowed to delete this place")
	}

	if err := s.places.DeleteForUser(ctx, place.ID, place.CreatorID); err != nil {
		return err
	}

	if s.files != nil {
		if err := s.files.Remove(ctx, place.Image); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("place_id", place.ID).Msg("failed to remove place image")
		}
	}

	observability.LoggerFromContext(ctx).Info().Str("place_id", place.ID).Str("user_id", callerID).Msg("place deleted")
	return nil
}

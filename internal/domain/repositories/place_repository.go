package repositories

import (
	"context"

	"github.com/codershubham350/discover-places-backend/internal/domain/entities"
)

// PlaceRepository defines place persistence. CreateForUser and DeleteForUser
// are the only operations allowed to change a user's place list, and each
// commits the place row and the list change together or not at all.
type PlaceRepository interface {
	// GetByID retrieves a place by ID
	GetByID(ctx context.Context, id string) (*entities.Place, error)

	// ListByUser resolves the places in a user's place list, in list order.
	// Returns a not found error when the user does not exist.
	ListByUser(ctx context.Context, userID string) ([]*entities.Place, error)

	// CreateForUser inserts the place and appends its id to the creator's list
	CreateForUser(ctx context.Context, place *entities.Place) error

	// Update persists title and description changes
	Update(ctx context.Context, place *entities.Place) error

	// DeleteForUser removes the place and pulls its id from the creator's list
	DeleteForUser(ctx context.Context, placeID, creatorID string) error
}

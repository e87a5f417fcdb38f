package repositories

import (
	"context"

	"github.com/codershubham350/discover-places-backend/internal/domain/entities"
)

// UserRepository defines the interface for user data operations.
// Implementations never touch a user's place list; that belongs to
// PlaceRepository.
type UserRepository interface {
	// Create inserts a new user with an empty place list
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// List returns all users
	List(ctx context.Context) ([]*entities.User, error)
}

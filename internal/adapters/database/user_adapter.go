package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/codershubham350/discover-places-backend/internal/domain/entities"
	"github.com/codershubham350/discover-places-backend/internal/domain/repositories"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/codershubham350/discover-places-backend/pkg/errors"
)

var userColumns = []interface{}{"id", "name", "email", "password", "image", "place_ids", "created_at", "updated_at"}

// UserAdapter implements UserRepository in Postgres
type UserAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.UserRepository = (*UserAdapter)(nil)

// NewUserAdapter creates a new user adapter
func NewUserAdapter(client *postgres.Client) *UserAdapter {
	return &UserAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a user. The place list starts empty.
func (a *UserAdapter) Create(ctx context.Context, user *entities.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Places = []string{}

	query, args, err := a.db.Insert("users").Rows(goqu.Record{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"password":   user.Password,
		"image":      user.Image,
		"created_at": user.CreatedAt,
		"updated_at": user.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build user insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("User exists already, please login instead.")
		}
		return apperrors.NewInternalError("Signing up failed, please try again later.", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (a *UserAdapter) GetByID(ctx context.Context, id string) (*entities.User, error) {
	query, args, err := a.db.From("users").Select(userColumns...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build user query", err)
	}

	user, err := a.scanUser(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email
func (a *UserAdapter) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	query, args, err := a.db.From("users").Select(userColumns...).
		Where(goqu.Ex{"email": email}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build user query", err)
	}

	user, err := a.scanUser(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("user with this email not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user", err)
	}
	return user, nil
}

// List returns all users ordered by creation time
func (a *UserAdapter) List(ctx context.Context) ([]*entities.User, error) {
	query, args, err := a.db.From("users").Select(userColumns...).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build user list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("Fetching users failed, please try again later.", err)
	}
	defer rows.Close()

	users := make([]*entities.User, 0)
	for rows.Next() {
		user, err := a.scanUser(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("Fetching users failed, please try again later.", err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (a *UserAdapter) scanUser(row rowScanner) (*entities.User, error) {
	user := &entities.User{}
	var placeIDs pq.StringArray
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Password,
		&user.Image,
		&placeIDs,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Places = []string(placeIDs)
	if user.Places == nil {
		user.Places = []string{}
	}
	return user, nil
}

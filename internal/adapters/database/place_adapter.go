package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/codershubham350/discover-places-backend/internal/domain/entities"
	"github.com/codershubham350/discover-places-backend/internal/domain/repositories"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/clients/postgres"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/observability"
	apperrors "github.com/codershubham350/discover-places-backend/pkg/errors"
)

var placeColumns = []interface{}{
	"id", "title", "description", "address", "lat", "lng", "image", "creator_id", "created_at", "updated_at",
}

// PlaceAdapter implements PlaceRepository in Postgres. The creator's
// users.place_ids array is only written inside the same transaction that
// inserts or deletes the place row.
type PlaceAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

var _ repositories.PlaceRepository = (*PlaceAdapter)(nil)

// NewPlaceAdapter creates a new place adapter. metrics may be nil.
func NewPlaceAdapter(client *postgres.Client, metrics *observability.Metrics) *PlaceAdapter {
	return &PlaceAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

// GetByID retrieves a place by ID
func (a *PlaceAdapter) GetByID(ctx context.Context, id string) (*entities.Place, error) {
	query, args, err := a.db.From("places").Select(placeColumns...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build place query", err)
	}

	place := &entities.Place{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&place.ID,
		&place.Title,
		&place.Description,
		&place.Address,
		&place.Location.Lat,
		&place.Location.Lng,
		&place.Image,
		&place.CreatorID,
		&place.CreatedAt,
		&place.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("place with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Something went wrong, could not find a place.", err)
	}
	return place, nil
}

// ListByUser resolves the user's place_ids in array order with one query.
func (a *PlaceAdapter) ListByUser(ctx context.Context, userID string) ([]*entities.Place, error) {
	query, args, err := a.db.From(goqu.T("users").As("u")).
		LeftJoin(
			goqu.T("places").As("p"),
			goqu.On(goqu.L(`"p"."id" = ANY("u"."place_ids")`)),
		).
		Select(
			goqu.I("p.id"),
			goqu.I("p.title"),
			goqu.I("p.description"),
			goqu.I("p.address"),
			goqu.I("p.lat"),
			goqu.I("p.lng"),
			goqu.I("p.image"),
			goqu.I("p.creator_id"),
		).
		Where(goqu.I("u.id").Eq(userID)).
		Order(goqu.L(`array_position("u"."place_ids", "p"."id")`).Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build user places query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("Fetching places failed, please try again later.", err)
	}
	defer rows.Close()

	userFound := false
	places := make([]*entities.Place, 0)
	for rows.Next() {
		userFound = true

		var (
			id, title, description, address, image, creatorID sql.NullString
			lat, lng                                          sql.NullFloat64
		)
		if err := rows.Scan(&id, &title, &description, &address, &lat, &lng, &image, &creatorID); err != nil {
			return nil, apperrors.NewInternalError("failed to scan place", err)
		}
		// A user with an empty list still yields one row with NULL place columns.
		if !id.Valid {
			continue
		}
		places = append(places, &entities.Place{
			ID:          id.String,
			Title:       title.String,
			Description: description.String,
			Address:     address.String,
			Location:    entities.Location{Lat: lat.Float64, Lng: lng.Float64},
			Image:       image.String,
			CreatorID:   creatorID.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("Fetching places failed, please try again later.", err)
	}

	if !userFound {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with id %s not found", userID))
	}
	return places, nil
}

// CreateForUser locks the creator row, inserts the place and appends its id
// to the creator's place list in one transaction.
func (a *PlaceAdapter) CreateForUser(ctx context.Context, place *entities.Place) error {
	ctx, span := observability.StartSpan(ctx, "PlaceAdapter.CreateForUser")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("place.id", place.ID),
		attribute.String("user.id", place.CreatorID),
	)

	now := time.Now().UTC()
	if place.CreatedAt.IsZero() {
		place.CreatedAt = now
	}
	place.UpdatedAt = now

	start := time.Now()
	err := a.client.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := a.lockUser(ctx, tx, place.CreatorID); err != nil {
			return err
		}

		insert, args, err := a.db.Insert("places").Rows(goqu.Record{
			"id":          place.ID,
			"title":       place.Title,
			"description": place.Description,
			"address":     place.Address,
			"lat":         place.Location.Lat,
			"lng":         place.Location.Lng,
			"image":       place.Image,
			"creator_id":  place.CreatorID,
			"created_at":  place.CreatedAt,
			"updated_at":  place.UpdatedAt,
		}).ToSQL()
		if err != nil {
			return fmt.Errorf("build place insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			return fmt.Errorf("insert place: %w", err)
		}

		update, args, err := a.db.Update("users").Set(goqu.Record{
			"place_ids":  goqu.L(`array_append("place_ids", ?)`, place.ID),
			"updated_at": now,
		}).Where(goqu.Ex{"id": place.CreatorID}).ToSQL()
		if err != nil {
			return fmt.Errorf("build user place list update: %w", err)
		}
		if _, err := tx.ExecContext(ctx, update, args...); err != nil {
			return fmt.Errorf("append place to user: %w", err)
		}
		return nil
	})
	observability.RecordTxMetric(ctx, a.metrics, "create_place", err == nil, time.Since(start))

	if err != nil {
		observability.RecordError(span, err)
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return err
		}
		return apperrors.NewInternalError("Creating place failed, please try again.", err)
	}
	return nil
}

// Update persists title and description
func (a *PlaceAdapter) Update(ctx context.Context, place *entities.Place) error {
	place.UpdatedAt = time.Now().UTC()

	query, args, err := a.db.Update("places").Set(goqu.Record{
		"title":       place.Title,
		"description": place.Description,
		"updated_at":  place.UpdatedAt,
	}).Where(goqu.Ex{"id": place.ID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build place update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("Something went wrong, could not update place.", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("place with id %s not found", place.ID))
	}
	return nil
}

// DeleteForUser removes the place owned by creatorID and pulls its id from
// the creator's place list in one transaction.
func (a *PlaceAdapter) DeleteForUser(ctx context.Context, placeID, creatorID string) error {
	ctx, span := observability.StartSpan(ctx, "PlaceAdapter.DeleteForUser")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("place.id", placeID),
		attribute.String("user.id", creatorID),
	)

	start := time.Now()
	err := a.client.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		del, args, err := a.db.Delete("places").
			Where(goqu.Ex{"id": placeID, "creator_id": creatorID}).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build place delete: %w", err)
		}
		result, err := tx.ExecContext(ctx, del, args...)
		if err != nil {
			return fmt.Errorf("delete place: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete place rows affected: %w", err)
		}
		if n == 0 {
			return apperrors.NewNotFoundError("Could not find place associated with this id")
		}

		update, args, err := a.db.Update("users").Set(goqu.Record{
			"place_ids":  goqu.L(`array_remove("place_ids", ?)`, placeID),
			"updated_at": time.Now().UTC(),
		}).Where(goqu.Ex{"id": creatorID}).ToSQL()
		if err != nil {
			return fmt.Errorf("build user place list update: %w", err)
		}
		result, err = tx.ExecContext(ctx, update, args...)
		if err != nil {
			return fmt.Errorf("remove place from user: %w", err)
		}
		if n, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("remove place rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("creator %s of place %s has no user row", creatorID, placeID)
		}
		return nil
	})
	observability.RecordTxMetric(ctx, a.metrics, "delete_place", err == nil, time.Since(start))

	if err != nil {
		observability.RecordError(span, err)
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return err
		}
		return apperrors.NewInternalError("Something went wrong, could not delete place", err)
	}
	return nil
}

func (a *PlaceAdapter) lockUser(ctx context.Context, tx *sql.Tx, userID string) error {
	query, args, err := a.db.From("users").Select("id").
		Where(goqu.Ex{"id": userID}).
		ForUpdate(exp.Wait).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build user lock: %w", err)
	}

	var id string
	err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFoundError("Could not find user for provided id")
	}
	if err != nil {
		return fmt.Errorf("lock user: %w", err)
	}
	return nil
}

package services_test

import (
	"context"
	"sync"

	"github.com/codershubham350/discover-places-backend/internal/domain/entities"
	"github.com/codershubham350/discover-places-backend/internal/domain/providers"
	apperrors "github.com/codershubham350/discover-places-backend/pkg/errors"
)

// memoryStore is an in-process stand-in for Postgres. Each mutating call
// holds the lock for the whole place+user change, like the SQL transaction.
type memoryStore struct {
	mu     sync.Mutex
	users  map[string]*entities.User
	places map[string]*entities.Place
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:  map[string]*entities.User{},
		places: map[string]*entities.Place{},
	}
}

func (s *memoryStore) Create(ctx context.Context, user *entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return apperrors.NewConflictError("User exists already, please login instead.")
		}
	}
	copied := *user
	copied.Places = append([]string{}, user.Places...)
	s.users[user.ID] = &copied
	return nil
}

func (s *memoryStore) GetByID(ctx context.Context, id string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("user not found")
	}
	copied := *u
	copied.Places = append([]string{}, u.Places...)
	return &copied, nil
}

func (s *memoryStore) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user not found")
}

func (s *memoryStore) List(ctx context.Context) ([]*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]*entities.User, 0, len(s.users))
	for _, u := range s.users {
		copied := *u
		users = append(users, &copied)
	}
	return users, nil
}

func (s *memoryStore) placeStore() *memoryPlaces {
	return &memoryPlaces{s}
}

// memoryPlaces exposes the place side of memoryStore, since both
// repositories have a GetByID method.
type memoryPlaces struct {
	s *memoryStore
}

func (p *memoryPlaces) GetByID(ctx context.Context, id string) (*entities.Place, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	place, ok := p.s.places[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("place not found")
	}
	copied := *place
	return &copied, nil
}

func (p *memoryPlaces) ListByUser(ctx context.Context, userID string) ([]*entities.Place, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	u, ok := p.s.users[userID]
	if !ok {
		return nil, apperrors.NewNotFoundError("user not found")
	}
	places := make([]*entities.Place, 0, len(u.Places))
	for _, id := range u.Places {
		if place, ok := p.s.places[id]; ok {
			copied := *place
			places = append(places, &copied)
		}
	}
	return places, nil
}

func (p *memoryPlaces) CreateForUser(ctx context.Context, place *entities.Place) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	u, ok := p.s.users[place.CreatorID]
	if !ok {
		return apperrors.NewNotFoundError("Could not find user for provided id")
	}
	copied := *place
	p.s.places[place.ID] = &copied
	u.Places = append(u.Places, place.ID)
	return nil
}

func (p *memoryPlaces) Update(ctx context.Context, place *entities.Place) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	existing, ok := p.s.places[place.ID]
	if !ok {
		return apperrors.NewNotFoundError("place not found")
	}
	existing.Title = place.Title
	existing.Description = place.Description
	return nil
}

func (p *memoryPlaces) DeleteForUser(ctx context.Context, placeID, creatorID string) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	place, ok := p.s.places[placeID]
	if !ok || place.CreatorID != creatorID {
		return apperrors.NewNotFoundError("Could not find place associated with this id")
	}
	delete(p.s.places, placeID)
	u := p.s.users[creatorID]
	kept := u.Places[:0]
	for _, id := range u.Places {
		if id != placeID {
			kept = append(kept, id)
		}
	}
	u.Places = kept
	return nil
}

type fixedGeocoder struct {
	coords providers.Coordinates
}

func (g fixedGeocoder) Geocode(ctx context.Context, address string) (*providers.Coordinates, error) {
	c := g.coords
	return &c, nil
}

package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/codershubham350/discover-places-backend/internal/adapters/database"
	"github.com/codershubham350/discover-places-backend/internal/domain/entities"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/clients/postgres"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/observability"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/security"
	"github.com/codershubham350/discover-places-backend/pkg/config"
)

// Seeds one demo account with a couple of places for local development.
// Log in as demo@example.com / demo-password.
func main() {
	_ = godotenv.Load()
	observability.InitLogger("discover-places-seed", "development", "info")

	dbCfg := config.LoadDatabase()
	pgClient, err := postgres.NewClient(&dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE places, users`); err != nil {
			log.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	users := database.NewUserAdapter(pgClient)
	places := database.NewPlaceAdapter(pgClient, nil)

	hash, err := security.HashPassword("demo-password")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash demo password")
	}

	demo := &entities.User{
		ID:       uuid.New().String(),
		Name:     "Demo User",
		Email:    "demo@example.com",
		Password: hash,
		Image:    "uploads/images/demo.png",
	}
	if err := users.Create(ctx, demo); err != nil {
		log.Fatal().Err(err).Msg("failed to create demo user")
	}

	seeds := []entities.Place{
		{
			Title:       "Empire State Building",
			Description: "One of the most famous sky scrapers in the world!",
			Address:     "20 W 34th St, New York, NY 10001",
			Location:    entities.Location{Lat: 40.7484405, Lng: -73.9878584},
		},
		{
			Title:       "Googleplex",
			Description: "Headquarters campus with a bike for everyone.",
			Address:     "1600 Amphitheatre Pkwy, Mountain View, CA 94043",
			Location:    entities.Location{Lat: 37.4223878, Lng: -122.0841877},
		},
	}

	created := make([]string, 0, len(seeds))
	for i := range seeds {
		p := seeds[i]
		p.ID = uuid.New().String()
		p.Image = "uploads/images/demo.png"
		p.CreatorID = demo.ID
		if err := places.CreateForUser(ctx, &p); err != nil {
			log.Error().Err(err).Str("title", p.Title).Msg("failed to create place")
			continue
		}
		created = append(created, p.ID)
		log.Info().Str("id", p.ID).Str("title", p.Title).Msg("seeded place")
	}

	stored, err := users.GetByID(ctx, demo.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to reload demo user")
	}
	for _, id := range created {
		if !stored.OwnsPlace(id) {
			log.Error().Str("place_id", id).Msg("seeded place missing from user's place list")
		}
	}

	log.Info().Str("user_id", demo.ID).Str("email", demo.Email).Int("places", len(stored.Places)).Msg("seeding complete")
}

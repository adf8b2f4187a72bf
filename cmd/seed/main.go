// Command seed inserts the demo dishes and a default shelf.
// Usage: go run ./cmd/seed
// Tables that already hold rows are left alone, so running it twice is safe.
package main

import (
	"context"
	"os"
	"time"

	"github.com/antontit/buffet/internal/config"
	"github.com/antontit/buffet/internal/infra"
	"github.com/antontit/buffet/internal/model"
	"github.com/antontit/buffet/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var demoDishes = []model.Dish{
	{Name: "Bowl", Type: "bowl", Image: "images/bowl.png", Width: 140, Height: 90, StackLimit: 10},
	{Name: "Cup", Type: "cup", Image: "images/cup.png", Width: 110, Height: 120, StackLimit: 1},
	{Name: "Dish", Type: "dish", Image: "images/dish.png", Width: 160, Height: 100, StackLimit: 10},
	{Name: "Soup", Type: "soup", Image: "images/soup.png", Width: 150, Height: 90, StackLimit: 1},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := seed(ctx,
		repository.NewShelfRepository(db),
		repository.NewDishRepository(db),
		cfg.SeedShelfWidth, cfg.SeedShelfHeight,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Int("dishes", res.dishes).Int("shelves", res.shelves).Msg("seed complete")
}

type seedResult struct{ dishes, shelves int }

func seed(ctx context.Context, shelves repository.ShelfRepository, dishes repository.DishRepository, shelfWidth, shelfHeight int) (seedResult, error) {
	var res seedResult

	n, err := dishes.Count(ctx)
	if err != nil {
		return res, err
	}
	if n == 0 {
		for _, d := range demoDishes {
			d := d
			if err := dishes.Create(ctx, &d); err != nil {
				return res, err
			}
			res.dishes++
		}
	}

	n, err = shelves.Count(ctx)
	if err != nil {
		return res, err
	}
	if n == 0 {
		if err := shelves.Create(ctx, &model.Shelf{Name: "Main shelf", Width: shelfWidth, Height: shelfHeight}); err != nil {
			return res, err
		}
		res.shelves++
	}
	return res, nil
}

// Command seed loads catalog entries from a JSON file into the configured
// store. Titles already present are skipped, so reruns are safe.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Clark-Hu/myflix-api/internal/backend"
	"github.com/Clark-Hu/myflix-api/internal/config"
	"github.com/Clark-Hu/myflix-api/internal/domain"
	"github.com/Clark-Hu/myflix-api/internal/logging"
	"github.com/Clark-Hu/myflix-api/internal/repository"
)

type directorEntry struct {
	Name  string  `json:"Name"`
	Bio   string  `json:"Bio"`
	Birth *string `json:"Birth"`
	Death *string `json:"Death"`
}

type movieEntry struct {
	Title       string        `json:"Title"`
	Description string        `json:"Description"`
	Genre       domain.Genre  `json:"Genre"`
	Director    directorEntry `json:"Director"`
	Actors      []string      `json:"Actors"`
	ImagePath   string        `json:"ImagePath"`
	Featured    bool          `json:"Featured"`
}

func main() {
	var (
		data   = flag.String("data", "db/seed/movies.json", "path to seed data file")
		dryRun = flag.Bool("dry-run", false, "parse the data file without writing")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, cfg, logger, *data, *dryRun, backend.Open); err != nil {
		logger.Fatal("seed failed", zap.String("path", *data), zap.Error(err))
	}
}

type openFunc func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend.Backend, error)

// run parses dataPath and, unless dryRun, writes the missing titles through
// the backend returned by open.
func run(ctx context.Context, cfg config.Config, logger *zap.Logger, dataPath string, dryRun bool, open openFunc) error {
	params, err := loadMovies(dataPath)
	if err != nil {
		return err
	}
	logger.Info("seed: parsed data file", zap.String("path", dataPath), zap.Int("movies", len(params)))
	if dryRun {
		return nil
	}

	b, err := open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.DBDriver, err)
	}
	defer b.Close()

	inserted, err := seed(ctx, b.Repo.Movies, params)
	if err != nil {
		return fmt.Errorf("stopped after %d inserts: %w", inserted, err)
	}
	logger.Info("seed: done", zap.Int("inserted", inserted), zap.Int("skipped", len(params)-inserted))
	return nil
}

func loadMovies(path string) ([]repository.MovieCreateParams, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed data: %w", err)
	}

	var entries []movieEntry
	if err := json.Unmarshal(file, &entries); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}

	out := make([]repository.MovieCreateParams, 0, len(entries))
	for i, entry := range entries {
		if entry.Title == "" {
			return nil, fmt.Errorf("entry %d: Title is required", i)
		}
		birth, err := optionalDate(entry.Director.Birth)
		if err != nil {
			return nil, fmt.Errorf("entry %q: Director.Birth: %w", entry.Title, err)
		}
		death, err := optionalDate(entry.Director.Death)
		if err != nil {
			return nil, fmt.Errorf("entry %q: Director.Death: %w", entry.Title, err)
		}
		out = append(out, repository.MovieCreateParams{
			Title:       entry.Title,
			Description: entry.Description,
			Genre:       entry.Genre,
			Director: domain.Director{
				Name:  entry.Director.Name,
				Bio:   entry.Director.Bio,
				Birth: birth,
				Death: death,
			},
			Actors:    entry.Actors,
			ImagePath: entry.ImagePath,
			Featured:  entry.Featured,
		})
	}
	return out, nil
}

// seed inserts every movie whose title is not yet in the catalog and returns
// how many were written.
func seed(ctx context.Context, movies repository.MovieRepository, params []repository.MovieCreateParams) (int, error) {
	inserted := 0
	for _, p := range params {
		_, err := movies.GetByTitle(ctx, p.Title)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return inserted, fmt.Errorf("lookup %q: %w", p.Title, err)
		}
		if _, err := movies.Create(ctx, p); err != nil {
			return inserted, fmt.Errorf("create %q: %w", p.Title, err)
		}
		inserted++
	}
	return inserted, nil
}

func optionalDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Command seed sets up the landmark cache schema and optionally loads a
// handful of well-known Singapore landmarks for local development.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"ridesg/internal/config"
	"ridesg/internal/domain"
	"ridesg/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop the landmarks table before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed landmarks")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	if cfg.SupabaseDBURL == "" {
		log.Fatalf("SUPABASE_DB_URL is required to seed the landmark cache")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Seeding landmark cache (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping landmarks table...")
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+tables.Landmarks); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	log.Println("Ensuring schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		return
	}

	repo := postgres.NewLandmarkRepository(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	})

	log.Println("Seeding landmarks...")
	landmarks := seedLandmarks()
	for i, landmark := range landmarks {
		id, err := repo.Save(ctx, &landmark)
		if err != nil {
			log.Printf("Failed to save '%s': %v", landmark.Title, err)
			continue
		}
		if id == "" {
			log.Printf("Skipped %d/%d: %s (already cached)", i+1, len(landmarks), landmark.Title)
			continue
		}
		log.Printf("Saved %d/%d: %s (ID: %s)", i+1, len(landmarks), landmark.Title, id)
	}

	log.Println("Seeding complete")
}

// runSchema creates the landmarks table and its indexes if they don't exist.
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`); err != nil {
		return err
	}

	createLandmarks := `
		CREATE TABLE IF NOT EXISTS ` + tables.Landmarks + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			address TEXT,
			url TEXT,
			source TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(title, latitude, longitude)
		)
	`
	if _, err := pool.Exec(ctx, createLandmarks); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `landmarks_title ON ` + tables.Landmarks + ` (title)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `landmarks_created_at ON ` + tables.Landmarks + ` (created_at DESC)`,
	}
	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

func seedLandmarks() []domain.SearchResult {
	return []domain.SearchResult{
		{
			Title:       "Marina Bay Sands",
			Description: "Integrated resort with the rooftop infinity pool and SkyPark observation deck",
			Location:    domain.Location{Latitude: 1.2834, Longitude: 103.8607},
			Source:      domain.SourceDatabase,
			Address:     "10 Bayfront Avenue, Singapore 018956",
		},
		{
			Title:       "Gardens by the Bay",
			Description: "Nature park with the Supertree Grove, Cloud Forest and Flower Dome",
			Location:    domain.Location{Latitude: 1.2816, Longitude: 103.8636},
			Source:      domain.SourceDatabase,
			Address:     "18 Marina Gardens Drive, Singapore 018953",
		},
		{
			Title:       "Merlion Park",
			Description: "Waterfront park around the Merlion statue overlooking Marina Bay",
			Location:    domain.Location{Latitude: 1.2868, Longitude: 103.8545},
			Source:      domain.SourceDatabase,
			Address:     "1 Fullerton Road, Singapore 049213",
		},
		{
			Title:       "Singapore Flyer",
			Description: "Giant observation wheel with views over Marina Bay and the city skyline",
			Location:    domain.Location{Latitude: 1.2893, Longitude: 103.8631},
			Source:      domain.SourceDatabase,
			Address:     "30 Raffles Avenue, Singapore 039803",
		},
		{
			Title:       "National Gallery Singapore",
			Description: "Art museum in the former Supreme Court and City Hall buildings",
			Location:    domain.Location{Latitude: 1.2903, Longitude: 103.8519},
			Source:      domain.SourceDatabase,
			Address:     "1 St Andrew's Road, Singapore 178957",
		},
	}
}

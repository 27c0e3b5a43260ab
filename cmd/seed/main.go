package main

import (
	"context"
	"flag"
	"os"

	"subsidy-intake-be/internal/pkg/logger"
	"subsidy-intake-be/internal/repository/implementation"
	"subsidy-intake-be/pkg/corpus"
	"subsidy-intake-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

// Loads the subsidy corpus CSV into subsidy_candidates.
func main() {
	path := flag.String("csv", "data/subsidies_with_embeddings.csv", "corpus CSV with id,name,summary,embed columns")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		color.Yellow("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}

	color.Cyan("🌱 Seeding subsidy corpus from %s", *path)

	candidates, err := corpus.LoadCSV(*path, logger.NewZapLogger("logs/seed.log", false))
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}

	repo := implementation.NewCandidateRepository(db)
	ctx := context.Background()
	if err := repo.Upsert(ctx, candidates); err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}

	total, err := repo.Count(ctx)
	if err != nil {
		color.Red("Failed to count candidates: %v", err)
		os.Exit(1)
	}
	color.Green("✅ Upserted %d rows, %d candidates stored", len(candidates), total)
}

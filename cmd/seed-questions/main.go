package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/stemsi/quizboard-backend/internal/config"
	"github.com/stemsi/quizboard-backend/internal/database"
	"github.com/stemsi/quizboard-backend/internal/logger"
	"github.com/stemsi/quizboard-backend/internal/model"
	"github.com/stemsi/quizboard-backend/internal/repository"
)

func main() {
	var file string
	flag.StringVar(&file, "file", "", "JSON file with [{question, options, answer}] (default: built-in starter set)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	seeds := model.DefaultSeedQuestions
	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("Failed to read seed file")
		}
		seeds = nil
		if err := json.Unmarshal(raw, &seeds); err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("Failed to parse seed file")
		}
	}

	for _, s := range seeds {
		if err := s.Validate(); err != nil {
			log.Fatal().Err(err).Msg("Invalid seed question")
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	questionRepo := repository.NewQuestionRepository(pool)

	fmt.Printf("=== Seeding %d Questions ===\n", len(seeds))

	inserted := 0
	for _, s := range seeds {
		q := s.ToQuestion()
		created, err := questionRepo.CreateIfAbsent(ctx, q)
		if err != nil {
			log.Fatal().Err(err).Str("question", s.Question).Msg("Failed to insert question")
		}
		if created {
			inserted++
			fmt.Printf("Inserted #%d: %s\n", q.ID, q.Question)
		} else {
			fmt.Printf("Skipped (exists): %s\n", s.Question)
		}
	}

	fmt.Printf("\nDone. %d inserted, %d already present.\n", inserted, len(seeds)-inserted)
}

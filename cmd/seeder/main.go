// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/unclebandit/agency-notifier/internal/config"
	"github.com/unclebandit/agency-notifier/internal/db"
	"github.com/unclebandit/agency-notifier/internal/logging"
)

func main() {
	dir := flag.String("dir", "seed", "directory holding the seed SQL files")
	demo := flag.Bool("demo", false, "also load sample customers, orders and payments")
	flag.Parse()

	cfg, _, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", false)
		bootLog.Fatal().Err(err).Msg("❌ Invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogJSON)

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DSN(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Database unavailable")
	}
	defer conn.Close()

	for _, file := range seedFiles(*dir, *demo) {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("failed to read seed file")
		}
		if _, err := conn.ExecContext(ctx, string(content)); err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("failed to execute seed file")
		}
		log.Info().Str("file", file).Msg("🌱 Seeded")
	}

	log.Info().Msg("✅ Database seeding completed successfully!")
}

// seedFiles lists the files in apply order. Every file is safe to re-run.
func seedFiles(dir string, demo bool) []string {
	names := []string{"schema.sql", "templates.sql", "settings.sql"}
	if demo {
		names = append(names, "demo.sql")
	}
	files := make([]string, len(names))
	for i, n := range names {
		files[i] = filepath.Join(dir, n)
	}
	return files
}

// cmd/importcatalog runs the catalog import pipeline against a local CSV or XLSX file.
// Usage: go run ./cmd/importcatalog --catalog drinks --file menu.xlsx
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"sipndash/internal/catalogimport"
	"sipndash/internal/config"
	"sipndash/internal/dto"
	"sipndash/internal/infra"
	"sipndash/internal/model"
	"sipndash/internal/repository"
	"sipndash/internal/router"
	"sipndash/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	file := pflag.StringP("file", "f", "", "CSV or XLSX file to import")
	catalogName := pflag.StringP("catalog", "c", string(model.CatalogDrinks), "drinks | cocktails")
	pflag.Parse()

	if *file == "" {
		log.Fatal().Msg("--file is required")
	}
	catalog, ok := model.ParseCatalog(*catalogName)
	if !ok {
		log.Fatal().Str("catalog", *catalogName).Msg("unknown catalog")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open file")
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc := service.NewImportService(
		repository.NewCategoryRepository(db),
		repository.NewProductRepository(db),
		repository.NewPriceHistoryRepository(db),
		router.ImportPolicy(cfg),
	)
	out, err := svc.Import(ctx, catalog, filepath.Base(*file), f)
	if err != nil {
		log.Fatal().Err(err).Msg("import rejected")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(dto.ImportResponse{
		Status:     out.Status,
		Created:    out.Created,
		Updated:    out.Updated,
		Errors:     out.Errors,
		ErrorCount: out.ErrorCount,
	})
	if out.Status == catalogimport.StatusPartialSuccess {
		os.Exit(3)
	}
}

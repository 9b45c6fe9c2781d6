package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"memoir-api/internal/app"
	"memoir-api/internal/config"
)

func main() {
	owners := flag.String("owners", "", "Comma-separated owner ids to generate scrapbook lists for (required)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *owners == "" {
		logger.Fatal("-owners is required")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	svcs, err := app.InitServices(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize services", zap.Error(err))
	}
	defer svcs.Close()

	failed := 0
	for _, owner := range strings.Split(*owners, ",") {
		owner = strings.TrimSpace(owner)
		if owner == "" {
			continue
		}

		summary, err := svcs.Scrapbooks.GenerateLists(ctx, owner)
		if err != nil {
			logger.Error("scrapbook run failed", zap.String("owner", owner), zap.Error(err))
			failed++
			continue
		}
		if summary.Disabled {
			logger.Info("scrapbook auto-update is disabled, nothing to do")
			break
		}

		logger.Info("scrapbook summary",
			zap.String("owner", owner),
			zap.Int("listsCreated", summary.ListsCreated),
			zap.Int("listsUpdated", summary.ListsUpdated),
			zap.Int("belowThreshold", summary.BelowThreshold),
			zap.Int("totalPosts", summary.TotalPosts))
	}

	if failed > 0 {
		os.Exit(1)
	}
}

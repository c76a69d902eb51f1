package cmd

import (
	"context"
	"errors"
	"log"

	"github.com/spigell/seoul-job-matcher/internal/logger"
	"github.com/spigell/seoul-job-matcher/internal/storage/db"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Run: func(_ *cobra.Command, _ []string) {
		migrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func migrate() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config.Database.URL == "" && config.Cache.Backend != "sql" {
		logger.Fatal("nothing to migrate", zap.Error(errors.New("database.url is not set")))
	}

	database, dialect, err := openDatabase(ctx, config, logger)
	if err != nil {
		logger.Fatal("connecting database", zap.Error(err))
	}
	defer database.Close()

	if err := db.RunMigrations(ctx, database, dialect); err != nil {
		logger.Fatal("running migrations", zap.Error(err))
	}

	logger.Info("migrations applied", zap.String("dialect", string(dialect)))
}

package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spigell/seoul-job-matcher/internal/logger"
	"github.com/spigell/seoul-job-matcher/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis triggers over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("migrate", false, "apply database migrations before serving")
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the seoul-job-matcher server", zap.String("version", version))

	migrate, _ := cmd.Flags().GetBool("migrate")
	d, err := buildDeps(ctx, config, migrate, logger)
	if err != nil {
		logger.Fatal("building dependencies", zap.Error(err))
	}
	defer d.close(logger)

	srv := server.New(d.service, logger)
	if err := srv.ListenAndServe(ctx, config.Server.Addr); err != nil {
		logger.Error("http server stopped", zap.Error(err))
		return
	}

	logger.Info("exiting", zap.String("reason", "shutdown requested"))
}

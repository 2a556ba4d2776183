package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/retentioniq/internal/insights"
	"github.com/spigell/retentioniq/internal/logger"
	"github.com/spigell/retentioniq/internal/metrics"
	"github.com/spigell/retentioniq/internal/model"
	"github.com/spigell/retentioniq/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction dashboard and API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
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

	logger.Info("starting the retentioniq server", zap.String("version", version))

	rec := metrics.New(metrics.WithRuntimeCollectors())

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil && !errors.Is(err, errAIDisabled) {
		logger.Warn("generative model is not available; narratives will carry the error", zap.Error(err))
	}

	mc := modelConfig(config.Model)
	if !model.Exists(mc.Dir) {
		logger.Warn("model directory has no metadata file", zap.String("dir", mc.Dir))
	}

	source := pipelineSource(model.NewLoader(mc, logger), newExplainer(generator, config.AI, logger), logger, rec)
	if _, err := source(); err != nil {
		// Predictions answer 503 until the process is restarted with valid artifacts.
		logger.Error("model artifacts not loaded", zap.Error(err))
	}

	ds := loadDataset(config.Dataset, logger)

	var replier insights.Replier
	if generator != nil {
		replier = generator
	}

	srv := server.New(server.Deps{
		Predictor: func() (server.Predictor, error) {
			p, err := source()
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		Chat:    insights.NewChat(replier, ds.Preview(previewRows(config.Dataset)), logger, rec),
		Dataset: ds,
		Metrics: rec,
		Logger:  logger,
		Version: version,
	})

	addr := ":8080"
	if config.Server != nil && config.Server.Addr != "" {
		addr = config.Server.Addr
	}

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		logger.Fatal("serving http", zap.Error(err))
	}
}

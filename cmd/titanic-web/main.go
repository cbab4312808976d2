package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/cfg"
	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/metrics"
	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/ml"
	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/pipeline"
	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/storage"
	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/web"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var (
	cfgFile string
	envFile string
	rootCmd = &cobra.Command{
		Use:   "titanic-web",
		Short: "Titanic survival prediction web service",
		Long: `titanic-web serves an upload form for passenger CSV files, predicts survival
for every row with a pre-trained classifier, and offers the annotated table as a download.`,
		SilenceUsage: true,
		RunE:         run,
	}
)

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "YAML config file (default: $CONFIG_FILE, else environment only)")
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading configuration")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", envFile, err)
	}

	c, err := cfg.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	setupLogging(c)

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	model, err := ml.Load(ml.Config{
		Backend:    c.ModelBackend,
		ModelPath:  c.ModelPath,
		PythonPath: c.PythonPath,
		Timeout:    c.ModelTimeout,
		RemoteURL:  c.RemoteURL,
		ONNX: ml.ONNXConfig{
			ModelPath:         c.ModelPath,
			LibPath:           c.ONNXLibPath,
			InputName:         c.ONNXInput,
			LabelOutput:       c.ONNXLabelOutput,
			ProbabilityOutput: c.ONNXProbOutput,
		},
	}, mw)
	if err != nil {
		return err
	}
	defer model.Close()

	results, err := storage.NewResultStore(c.ResultsDir)
	if err != nil {
		return fmt.Errorf("results directory: %w", err)
	}

	runs, err := storage.New(c.DataPath, c.RunHistory)
	if err != nil {
		return fmt.Errorf("run log: %w", err)
	}
	defer runs.Close()

	hub := web.NewHub()
	go hub.Run()

	p := pipeline.New(pipeline.Config{
		Predictor:   model,
		Results:     results,
		Runs:        runs,
		Notifier:    hub,
		Metrics:     mw,
		PreviewRows: c.PreviewRows,
	})

	server, err := web.NewServer(web.Config{
		ListenAddr:     c.ListenAddr,
		MaxUploadBytes: c.MaxUploadBytes,
		Backend:        model.Backend(),
		Pipeline:       p,
		Results:        results,
		Runs:           runs,
		Hub:            hub,
		Metrics:        mw,
		Gatherer:       prometheus.DefaultGatherer,
	})
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	ctx := cmd.Context()
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	log.Info().Msg("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout, forcing exit")
	}
	return nil
}

func setupLogging(c cfg.Settings) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warn().Str("level", c.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.LogConsole {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

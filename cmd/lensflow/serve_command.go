package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lensflow/internal/daemon"
	"lensflow/internal/logging"
	"lensflow/internal/notifications"
	"lensflow/internal/photo"
	"lensflow/internal/pipeline"
	"lensflow/internal/services/credentials"
	"lensflow/internal/services/gemini"
	"lensflow/internal/services/veo"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the lensflow daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				OutputPaths: []string{
					"stdout",
					filepath.Join(cfg.LogDir(), "lensflow.log"),
				},
			})
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}

			keys := credentials.NewStore(cfg.Gemini.APIKey)
			keySource := keys.Key

			analyzer := gemini.NewClient(gemini.Config{
				APIKey:         cfg.Gemini.APIKey,
				BaseURL:        cfg.Gemini.BaseURL,
				Model:          cfg.Gemini.VisionModel,
				TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
			}, gemini.WithKeySource(keySource), gemini.WithLogger(logger))

			generator := veo.NewClient(veo.Config{
				APIKey:          cfg.Gemini.APIKey,
				BaseURL:         cfg.Gemini.BaseURL,
				Model:           cfg.Gemini.VideoModel,
				TimeoutSeconds:  cfg.Gemini.TimeoutSeconds,
				PollInterval:    time.Duration(cfg.Gemini.PollIntervalSeconds) * time.Second,
				MaxPollAttempts: cfg.Gemini.MaxPollAttempts,
			}, veo.WithKeySource(keySource))

			store := photo.NewStore()
			orch := pipeline.NewOrchestrator(store, analyzer, generator,
				pipeline.WithCredentials(keys, credentials.NewTerminalSelector()),
				pipeline.WithNotifier(notifications.NewService(cfg)),
				pipeline.WithLogger(logger))

			d, err := daemon.New(cfg, store, orch, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := d.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "lensflow daemon listening on %s\n", d.Addr())

			<-runCtx.Done()
			d.Stop()
			return nil
		},
	}
}

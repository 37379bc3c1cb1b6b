package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"twitch-chat-moderator/auth"
	"twitch-chat-moderator/commands"
	"twitch-chat-moderator/config"
	"twitch-chat-moderator/helix"
	"twitch-chat-moderator/llm"
	"twitch-chat-moderator/moderation"
	"twitch-chat-moderator/service"
	"twitch-chat-moderator/storage"
	"twitch-chat-moderator/tokens"
	"twitch-chat-moderator/twitch"
)

var (
	logger *zap.Logger

	configPath   string
	commandsPath string
	envPath      string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "icarus",
	Short: "Icarus - moderated Twitch chat-command bot",
	Long: `Icarus joins the configured Twitch channels, checks every chat message
against the moderation classifier, removes the ones that are not permitted
and answers !commands from the command catalog.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loggerConfig := zap.NewProductionConfig()
		if verbose {
			loggerConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = loggerConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to config.json")
	rootCmd.Flags().StringVar(&commandsPath, "commands", "", "path to commands.json (overrides commandsFile from config)")
	rootCmd.Flags().StringVar(&envPath, "env", ".env", "optional .env file with API keys")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFile(envPath); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := tokens.NewStore(tokens.Credentials{
		AppID:         cfg.Twitch.AppID,
		ClientSecret:  cfg.Twitch.Secret,
		BotID:         cfg.Twitch.BotID,
		BotUsername:   cfg.TMI.Identity.Username,
		BroadcasterID: cfg.Twitch.BroadcasterID,
		RefreshToken:  cfg.Twitch.RefreshToken,
		AccessToken:   cfg.Twitch.AccessToken,
	}, tokens.SessionOptions{
		Channels: cfg.TMI.Channels,
		Debug:    cfg.TMI.Options.Debug,
	}, tokens.FileStore{Path: configPath})

	authenticator := auth.NewAuthenticator(store, logger)
	// токен из файла мог устареть, пока бот был выключен
	if err := authenticator.Refresh(ctx); err != nil {
		logger.Warn("startup token refresh failed, using stored access token", zap.Error(err))
	}

	remover := helix.NewRemover(store, authenticator, "", logger)

	provider, err := llm.New(ctx, llm.Config{
		Provider: cfg.Moderation.Provider,
		APIKey:   cfg.Moderation.APIKey,
		BaseURL:  cfg.Moderation.BaseURL,
		Model:    cfg.Moderation.Model,
	})
	if err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	engine := moderation.NewEngine(provider, cfg.Moderation.MaxLength, logger)
	moderator := moderation.NewModerator(engine, remover, logger)

	catalogPath := cfg.CommandsFile
	if commandsPath != "" {
		catalogPath = commandsPath
	}
	catalog, err := commands.LoadCatalog(catalogPath)
	if err != nil {
		return err
	}
	dispatcher, err := commands.NewDispatcher(catalog, commands.Builtins())
	if err != nil {
		return err
	}

	client := twitch.NewClient(store, cfg.Twitch.BotID, logger)
	store.OnUpdate(client.SyncToken)

	var opts []service.HandlerOption
	var batcher *storage.Batcher
	if cfg.Postgres.Enabled() {
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("pgxpool.New: %w", err)
		}
		defer pool.Close()

		if err := storage.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}

		batcher = storage.NewBatcher(ctx, pool, storage.BatchConfig{
			MaxBatch:      cfg.Batch.MaxBatch,
			FlushEvery:    cfg.Batch.FlushEvery,
			ChanBuffer:    cfg.Batch.ChanBuffer,
			StatsLogEvery: cfg.Batch.StatsLogEvery,
			FlushTimeout:  cfg.Batch.FlushTimeout,
		}, logger)
		opts = append(opts,
			service.WithRecorder(batcher),
			service.WithAlertSink(storage.NewAlertStore(pool, cfg.Batch.FlushTimeout)),
		)
	}

	handler := service.NewHandler(moderator, dispatcher, client, logger, opts...)
	client.SetHandler(handler)

	srv := service.New(client, service.NewLifecycle(client, logger))
	runErr := srv.Run(ctx)

	cancel()
	if batcher != nil {
		<-batcher.Done()
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("service run failed: %w", runErr)
	}

	logger.Info("shutting down...")
	return nil
}

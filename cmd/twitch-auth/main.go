package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"twitch-chat-moderator/auth"
	"twitch-chat-moderator/config"
	"twitch-chat-moderator/tokens"
)

var configPath string

// checkedFileStore запоминает ошибку записи: Authenticator её только логирует.
type checkedFileStore struct {
	tokens.FileStore
	err error
}

func (s *checkedFileStore) SaveTokens(refreshToken, accessToken string) error {
	s.err = s.FileStore.SaveTokens(refreshToken, accessToken)
	return s.err
}

var rootCmd = &cobra.Command{
	Use:          "twitch-auth",
	Short:        "Twitch token maintenance for icarus",
	SilenceUsage: true,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the stored refresh token for a new token pair and save it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFile(".env"); err != nil {
			return err
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}

		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logger.Sync()

		persister := &checkedFileStore{FileStore: tokens.FileStore{Path: configPath}}
		store := tokens.NewStore(tokens.Credentials{
			AppID:        cfg.Twitch.AppID,
			ClientSecret: cfg.Twitch.Secret,
			RefreshToken: cfg.Twitch.RefreshToken,
			AccessToken:  cfg.Twitch.AccessToken,
		}, tokens.SessionOptions{}, persister)

		if err := auth.NewAuthenticator(store, logger).Refresh(cmd.Context()); err != nil {
			return fmt.Errorf("refresh token: %w", err)
		}
		if persister.err != nil {
			return fmt.Errorf("save tokens: %w", persister.err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "ok, tokens saved to", configPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to config.json")
	rootCmd.AddCommand(refreshCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

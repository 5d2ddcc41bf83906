package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shipkey/shipkey/internal/backends"
	"github.com/shipkey/shipkey/internal/config"
)

// SessionStore persists the Bitwarden session token.
type SessionStore struct {
	Save  func(token string) error
	Clear func() error
}

// KeyringSessions stores sessions in the OS keyring.
func KeyringSessions() SessionStore {
	return SessionStore{Save: backends.SaveSession, Clear: backends.ClearSession}
}

func NewSessionCommand(cfg *config.Config, store SessionStore) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the cached Bitwarden session",
		Long: `Bitwarden commands need the session token printed by 'bw unlock'.
shipkey uses BW_SESSION when set and otherwise the token cached in the OS
keyring by 'shipkey session set'.`,
	}

	set := &cobra.Command{
		Use:   "set [token]",
		Short: "Cache a Bitwarden session token in the OS keyring",
		Long:  "Cache a session token. Without an argument the token is read from stdin, e.g. bw unlock --raw | shipkey session set",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if scanner.Scan() {
					token = scanner.Text()
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("failed to read session token: %w", err)
				}
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("empty session token")
			}
			if err := store.Save(token); err != nil {
				return fmt.Errorf("failed to store session in keyring: %w", err)
			}
			cfg.Logger.Info("Bitwarden session cached in the OS keyring")
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Remove the cached Bitwarden session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			cfg.Logger.Info("Bitwarden session removed from the OS keyring")
			return nil
		},
	}

	cmd.AddCommand(set, clear)
	return cmd
}

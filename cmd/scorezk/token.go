package scorezk

import (
	"fmt"
	"os"
	"time"

	"github.com/mynextid/private-score/server"
	"github.com/mynextid/private-score/server/api"
	"github.com/spf13/cobra"
)

func NewTokenCmd() *cobra.Command {
	var (
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <address>",
		Short: "Issue a wallet token for the owner endpoints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv(server.EnvJWTSecret)
			}
			token, err := api.IssueToken([]byte(secret), args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "jwt-secret", "", "HMAC secret, defaults to "+server.EnvJWTSecret)
	cmd.Flags().DurationVar(&ttl, "ttl", api.DefaultTokenTTL, "Token lifetime")

	return cmd
}

package scorezk

import (
	"fmt"
	"strconv"

	"github.com/mynextid/private-score/commitment"
	"github.com/spf13/cobra"
)

func NewCommitCmd() *cobra.Command {
	var salt string

	cmd := &cobra.Command{
		Use:   "commit <score>",
		Short: "Create or recompute a score commitment",
		Example: `  # Commit to a score with a fresh salt
  scorezk commit 771

  # Recompute a commitment from a known salt
  scorezk commit 771 --salt 9f86d0...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid score %q", args[0])
			}

			var hash string
			if salt == "" {
				hash, salt, err = commitment.New(score)
			} else {
				hash, err = commitment.CommitHex(score, salt)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "  commitment: %s\n", hash)
			fmt.Fprintf(cmd.OutOrStdout(), "  salt:       %s\n", salt)
			return nil
		},
	}

	cmd.Flags().StringVar(&salt, "salt", "", "Hex encoded 32 byte salt (empty generates one)")

	return cmd
}

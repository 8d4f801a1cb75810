package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hammaadworks/specialized-spec-kit/pkg/application"
	"github.com/hammaadworks/specialized-spec-kit/pkg/storage"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect recorded clarification sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the clarification event timeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, _ := os.Getwd()
		repo := storage.NewFilesystemRepository(cwd)
		audit := application.NewAuditService(repo)

		events, err := audit.GetTimeline()
		if err != nil {
			return MapError(err)
		}
		if len(events) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No clarification sessions recorded yet.")
			return nil
		}
		for _, e := range events {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-16s %s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.ID)
		}
		return nil
	},
}

var sessionsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the session log hash chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, _ := os.Getwd()
		repo := storage.NewFilesystemRepository(cwd)
		audit := application.NewAuditService(repo)

		violations, err := audit.VerifyIntegrity()
		if err != nil {
			return MapError(err)
		}
		if len(violations) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Session log intact.")
			return nil
		}
		for _, v := range violations {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return NewCLIError("session log integrity check failed", "The sessions.jsonl file was modified outside speckit", nil)
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsVerifyCmd)
	RootCmd.AddCommand(sessionsCmd)
}

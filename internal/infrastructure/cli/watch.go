package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hammaadworks/specialized-spec-kit/internal/infrastructure/watch"
	"github.com/hammaadworks/specialized-spec-kit/pkg/application"
	"github.com/hammaadworks/specialized-spec-kit/pkg/domain/coverage"
	"github.com/hammaadworks/specialized-spec-kit/pkg/storage"
)

var (
	watchSpecPath string
	watchScript   string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-scan coverage whenever the spec file changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, _ := os.Getwd()
		repo := storage.NewFilesystemRepository(cwd)
		service := application.NewClarifyService(repo, nil)
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))

		specPath, err := resolveSpecPath(cmd, cwd, watchSpecPath, watchScript)
		if err != nil {
			return MapError(err)
		}

		last, err := service.Status(specPath)
		if err != nil {
			return MapError(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderCoverageTable(last))

		// Rescans are delivered through a channel and consumed here, so the
		// baseline and stdout have a single owner; debounce callbacks only
		// signal.
		rescans := make(chan struct{}, 1)
		watcher, err := watch.NewSpecWatcher(specPath, watchDebounce, func() {
			select {
			case rescans <- struct{}{}:
			default:
			}
		}, logger)
		if err != nil {
			return MapError(err)
		}

		logger.Info("watching spec", slog.String("path", specPath))
		done := make(chan error, 1)
		go func() { done <- watcher.Run(cmd.Context()) }()

		for {
			select {
			case err := <-done:
				return err
			case <-rescans:
				results, err := service.Status(specPath)
				if err != nil {
					logger.Error("rescan failed", slog.Any("error", err))
					continue
				}
				last = diffCoverage(logger, last, results)
				fmt.Fprintln(cmd.OutOrStdout(), renderCoverageTable(results))
				if len(coverage.Remaining(results)) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No critical ambiguities detected.")
				}
			}
		}
	},
}

// diffCoverage logs every category whose status changed and returns the new
// baseline.
func diffCoverage(logger *slog.Logger, prev, next []coverage.Coverage) []coverage.Coverage {
	for i, c := range next {
		if i < len(prev) && prev[i].Status != c.Status {
			logger.Info("coverage changed",
				slog.String("category", c.Category),
				slog.String("from", string(prev[i].Status)),
				slog.String("to", string(c.Status)))
		}
	}
	return next
}

func init() {
	watchCmd.Flags().StringVar(&watchSpecPath, "spec", "", "Spec file path (skips the discovery step)")
	watchCmd.Flags().StringVar(&watchScript, "script", "", "Discovery script override")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Debounce window for file events")
	RootCmd.AddCommand(watchCmd)
}

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjean/firefly-iii-sub003/internal/config"
	"github.com/zjean/firefly-iii-sub003/internal/logger"
	"github.com/zjean/firefly-iii-sub003/internal/runlog"
	"github.com/zjean/firefly-iii-sub003/internal/runner"
	"github.com/zjean/firefly-iii-sub003/internal/store"
)

const dateFormat = "2006-01-02"

func newCronCommand() *cobra.Command {
	var configPath string
	var dateFlag string

	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Fire recurring schedules for a reference date",
		Long: "Loads every recurring schedule, creates the journals due on the " +
			"reference date (today unless --date is given), applies the owners' " +
			"rules and records the run. Safe to invoke more than once per day.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			today := time.Now()
			if dateFlag != "" {
				parsed, err := time.Parse(dateFormat, dateFlag)
				if err != nil {
					return fmt.Errorf("parsing --date: %w", err)
				}
				today = parsed
			}
			return runCron(cmd, configPath, today)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "recur.yaml", "path to config file")
	cmd.Flags().StringVar(&dateFlag, "date", "", "reference date (YYYY-MM-DD, default today)")

	return cmd
}

func runCron(cmd *cobra.Command, configPath string, today time.Time) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level)

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	r := runner.New(db, cfg.Engine.LookaheadDays, log,
		runner.LogHandler{Log: log},
		runlog.Recorder{Dir: cfg.Runlog.Dir},
	)

	summary, err := r.Run(cmd.Context(), today)
	if err != nil {
		return fmt.Errorf("recurrence run failed: %w", err)
	}
	if err := runlog.RecordSummary(cfg.Runlog.Dir, today, summary); err != nil {
		log.Error().Err(err).Msg("recording run summary failed")
	}

	fmt.Printf("Processed %d recurrences: %d created, %d skipped, %d errored\n",
		summary.Recurrences, summary.Created, summary.Skipped, summary.Errored)
	return nil
}

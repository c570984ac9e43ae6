package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"stride/internal/analysis"
	"stride/internal/api"
	"stride/internal/racetime"
	"stride/internal/store"
)

const (
	dateLayout      = "2006-01-02"
	shutdownTimeout = 10 * time.Second
)

// parseDate accepts YYYY-MM-DD (local midnight), YYYY-MM-DD HH:MM or RFC 3339.
// An empty string means now.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	for _, layout := range []string{dateLayout, "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD, \"YYYY-MM-DD HH:MM\" or RFC 3339)", s)
	}
	return t, nil
}

// periodFlags are shared by the period-based commands
type periodFlags struct {
	period string
	date   string
	back   int
}

func (f *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.period, "period", "p", string(analysis.PeriodWeek), "period: day, week, month or year")
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "reference date (default now)")
	cmd.Flags().IntVar(&f.back, "back", 0, "move this many periods back from the reference date")
}

func (f *periodFlags) resolve(a *app) (analysis.PeriodKind, time.Time, error) {
	kind, err := analysis.ParsePeriodKind(f.period)
	if err != nil {
		return "", time.Time{}, err
	}
	t, err := parseDate(f.date)
	if err != nil {
		return "", time.Time{}, err
	}
	for i := 0; i < f.back; i++ {
		t, _ = a.query.Navigate(kind, analysis.Previous, t)
	}
	return kind, t, nil
}

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Server.Address
			}
			if a.cfg.Log.Mode == "prod" {
				gin.SetMode(gin.ReleaseMode)
			}

			router := api.NewRouter(api.Services{Runs: a.runs, Query: a.query, Rewards: a.rewards}, a.log)
			srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("HTTP server listening", "address", addr, "backend", a.cfg.Store.Backend)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			a.log.Info("shutting down HTTP server")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutting down: %w", err)
			}
			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var (
		date     string
		distance float64
		duration string
		calories int
		runType  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := parseDate(date)
			if err != nil {
				return err
			}
			d, err := racetime.Parse(duration)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			rt, err := store.ParseRunType(runType)
			if err != nil {
				return err
			}

			res, err := a.runs.SaveRun(cmd.Context(), store.Run{
				OwnerID:  a.cfg.Owner,
				Date:     t,
				Distance: distance,
				Duration: int(d / time.Second),
				Calories: calories,
				Type:     rt,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.SaveResult(res))
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "run date (default now)")
	cmd.Flags().Float64VarP(&distance, "distance", "k", 0, "distance in km")
	cmd.Flags().StringVarP(&duration, "time", "t", "", "elapsed time, e.g. 25:00 or 1:02:30")
	cmd.Flags().IntVar(&calories, "calories", 0, "calories (default estimated from distance)")
	cmd.Flags().StringVar(&runType, "type", string(store.RunEasy), "run type: easy, interval, long or tempo")
	_ = cmd.MarkFlagRequired("distance")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func newImportTrackCmd(a *app) *cobra.Command {
	var runType string

	cmd := &cobra.Command{
		Use:   "import-track FILE",
		Short: "Record a run from a JSON array of GPS samples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading track: %w", err)
			}
			var samples []store.Coordinate
			if err := json.Unmarshal(data, &samples); err != nil {
				return fmt.Errorf("parsing track: %w", err)
			}
			rt, err := store.ParseRunType(runType)
			if err != nil {
				return err
			}

			res, err := a.runs.RecordTrack(cmd.Context(), a.cfg.Owner, rt, samples)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.SaveResult(res))
			return nil
		},
	}
	cmd.Flags().StringVar(&runType, "type", string(store.RunEasy), "run type: easy, interval, long or tempo")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete RUN_ID",
		Short: "Delete a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.runs.DeleteRun(cmd.Context(), a.cfg.Owner, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
			return nil
		},
	}
}

func newRunsCmd(a *app) *cobra.Command {
	var pf periodFlags
	var all bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs of a period, or all runs with --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var runs []store.Run
			if all {
				r, err := a.query.Runs(cmd.Context(), a.cfg.Owner)
				if err != nil {
					return err
				}
				runs = r
			} else {
				kind, t, err := pf.resolve(a)
				if err != nil {
					return err
				}
				r, err := a.query.RunsForPeriod(cmd.Context(), a.cfg.Owner, kind, t)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), a.query.PeriodLabel(kind, t))
				runs = r
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.Runs(runs))
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "list every run")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var pf periodFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show totals for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, t, err := pf.resolve(a)
			if err != nil {
				return err
			}
			stats, err := a.query.StatsForPeriod(cmd.Context(), a.cfg.Owner, kind, t)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.Stats(stats))
			return nil
		},
	}
	pf.register(cmd)
	return cmd
}

func newTrendCmd(a *app) *cobra.Command {
	var pf periodFlags
	var n int

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Chart distance over consecutive periods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, t, err := pf.resolve(a)
			if err != nil {
				return err
			}
			trend, err := a.query.Trend(cmd.Context(), a.cfg.Owner, kind, t, n)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.Trend(trend))
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().IntVarP(&n, "n", "n", 0, "number of periods (default 12)")
	return cmd
}

func newRecordsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "Show personal records over standard distances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.query.PersonalRecords(cmd.Context(), a.cfg.Owner)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.Records(records))
			return nil
		},
	}
}

func newAchievementsCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "Show achievements and progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			catalog, err := a.rewards.Catalog(ctx, a.cfg.Owner)
			if err != nil {
				return err
			}
			summary, err := a.rewards.ProgressSummary(ctx, a.cfg.Owner)
			if err != nil {
				return err
			}
			if category != "" {
				catalog, err = a.rewards.AchievementsByCategory(ctx, a.cfg.Owner, store.AchievementCategory(category))
				if err != nil {
					return err
				}
				if len(catalog) == 0 {
					return fmt.Errorf("unknown category %q", category)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.Achievements(catalog, summary))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only one category: personal, france, europe or world")
	return cmd
}

func newNotificationsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "Show recent achievement notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := a.rewards.Notifications(cmd.Context(), a.cfg.Owner)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.Notifications(log))
			return nil
		},
	}
}

func newReadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read NOTIFICATION_ID",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.rewards.MarkNotificationRead(cmd.Context(), a.cfg.Owner, args[0])
		},
	}
}

func newEvaluateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Re-evaluate achievements from the stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fresh, err := a.rewards.Evaluate(cmd.Context(), a.cfg.Owner)
			if err != nil {
				return err
			}
			if len(fresh) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No new achievements.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.renderer.Notifications(fresh))
			return nil
		},
	}
}

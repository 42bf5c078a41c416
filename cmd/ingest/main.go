// Command ingest runs the reconciliation and synthesis operations once from the shell.
//
// Usage:
//
//	fixture-insight-ingest reconcile
//	fixture-insight-ingest league --id 8
//	fixture-insight-ingest payload --fixture-id 19134453
//	fixture-insight-ingest sync teams
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/fixture-insight/internal/app"
	"github.com/riskibarqy/fixture-insight/internal/config"
	"github.com/riskibarqy/fixture-insight/internal/domain/reference"
	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
)

var logger = logging.NewJSON(logging.LevelInfo).Named("ingest")

func main() {
	_ = godotenv.Load(".env")
	defer func() { _ = logger.Sync() }()

	root := &cobra.Command{
		Use:          "fixture-insight-ingest",
		Short:        "Fixture reconciliation and payload CLI",
		SilenceUsage: true,
	}

	root.AddCommand(reconcileCmd())
	root.AddCommand(leagueCmd())
	root.AddCommand(payloadCmd())
	root.AddCommand(syncCmd())

	if err := root.Execute(); err != nil {
		_ = logger.Sync()
		os.Exit(1)
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Fetch the upcoming fixture window and upsert it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(func(ctx context.Context, a *app.App) error {
				start := time.Now()
				result, err := a.Reconciler.ReconcileFixtures(ctx)
				if err != nil {
					return err
				}
				logger.Info("reconciliation finished", "count", result.Count, "duration", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
}

func leagueCmd() *cobra.Command {
	var leagueID int64
	cmd := &cobra.Command{
		Use:   "league",
		Short: "Fetch every fixture for one league and upsert it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if leagueID <= 0 {
				return fmt.Errorf("--id must be a positive league id")
			}
			return runWithApp(func(ctx context.Context, a *app.App) error {
				result, err := a.Reconciler.ReconcileLeague(ctx, leagueID)
				if err != nil {
					return err
				}
				logger.Info("league fixtures stored", "league_id", leagueID, "count", result.Count)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&leagueID, "id", 0, "League ID")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func payloadCmd() *cobra.Command {
	var fixtureID int64
	cmd := &cobra.Command{
		Use:   "payload",
		Short: "Synthesize the analysis payload for a fixture and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fixtureID <= 0 {
				return fmt.Errorf("--fixture-id must be a positive fixture id")
			}
			return runWithApp(func(ctx context.Context, a *app.App) error {
				item, err := a.Synthesizer.SynthesizePayload(ctx, fixtureID)
				if err != nil {
					return err
				}
				raw, err := sonic.ConfigStd.MarshalIndent(item, "", "  ")
				if err != nil {
					return fmt.Errorf("encode payload: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return err
			})
		},
	}
	cmd.Flags().Int64Var(&fixtureID, "fixture-id", 0, "Fixture ID")
	_ = cmd.MarkFlagRequired("fixture-id")
	return cmd
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "sync <continents|countries|leagues|teams|players>",
		Short:     "Sync one reference catalog from SportMonks",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"continents", "countries", "leagues", "teams", "players"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := reference.ParseKind(args[0])
			if err != nil {
				return err
			}
			return runWithApp(func(ctx context.Context, a *app.App) error {
				count, err := a.References.Sync(ctx, kind)
				if err != nil {
					return err
				}
				logger.Info("reference sync finished", "kind", kind, "upserted", count)
				return nil
			})
		},
	}
}

func runWithApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger = logging.NewJSON(cfg.LogLevel).Named("ingest")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close app resources", "error", err)
		}
	}()

	if err := fn(ctx, a); err != nil {
		logger.Error("command failed", "error", err)
		return err
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/courses/internal/logging"
	"github.com/teemow/courses/internal/offline"
)

func newSyncCmd() *cobra.Command {
	var (
		flags       clientFlags
		watch       bool
		skip        int64
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replay changes queued while the server was unreachable",
		Long: `Replay the local queue against the server, oldest change first.

Without --watch the queue is drained once. Replay stops at the first change
that fails, leaving it and everything after it queued. A change the server
will never accept keeps blocking the queue until it is removed with
--skip SEQ, using the sequence number printed by sync.

With --watch the queue is drained on the client.drain_schedule cron schedule
until interrupted. --metrics-addr exposes the queue metrics while watching.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cfg, err := openSession(cmd.Context(), &flags)
			if err != nil {
				return err
			}
			defer session.Close()

			if cmd.Flags().Changed("skip") {
				return skipOne(cmd.Context(), cmd, session.Session, skip)
			}
			if !watch {
				return syncOnce(cmd.Context(), cmd, session.Session)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if metricsAddr != "" && session.provider.ServesPrometheus() {
				metricsServer, err := startMetricsServer(metricsAddr, session.provider)
				if err != nil {
					return err
				}
				slog.Info("metrics server started", "addr", metricsServer.Addr())
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					if err := metricsServer.Shutdown(ctx); err != nil {
						slog.Warn("error during metrics server shutdown", "error", err)
					}
				}()
			}

			scheduler, err := offline.NewScheduler(cfg.Client.DrainSchedule, session,
				logging.NewSlogAdapter(slog.Default()))
			if err != nil {
				return err
			}
			slog.Info("watching queue", "schedule", cfg.Client.DrainSchedule, "server", cfg.Client.ServerURL)
			scheduler.Start()
			<-ctx.Done()

			stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Client.Timeout)
			defer stopCancel()
			scheduler.Stop(stopCtx)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and drain on the configured schedule")
	cmd.Flags().Int64Var(&skip, "skip", 0, "Remove the queued change SEQ without replaying it")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address while watching")
	cmd.MarkFlagsMutuallyExclusive("skip", "watch")
	return cmd
}

func syncOnce(ctx context.Context, cmd *cobra.Command, session *offline.Session) error {
	if ctx == nil {
		ctx = context.Background()
	}
	n, err := session.Flush(ctx)
	if err != nil && !errors.Is(err, offline.ErrQueueReplayFailed) {
		return err
	}

	pending, perr := session.Pending(ctx)
	if perr != nil {
		return perr
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Applied %d change(s), %d pending\n", n, len(pending))
	if err != nil && len(pending) > 0 {
		blocked := pending[0]
		fmt.Fprintf(out, "Blocked at change %d (%s %s); fix the cause or run `courses sync --skip %d`\n",
			blocked.Seq, blocked.Action, blocked.ItemID, blocked.Seq)
	}
	return err
}

func skipOne(ctx context.Context, cmd *cobra.Command, session *offline.Session, seq int64) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m, err := session.Skip(ctx, seq)
	if err != nil {
		return err
	}
	pending, err := session.Pending(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Skipped change %d (%s %s), %d pending\n", m.Seq, m.Action, m.ItemID, len(pending))
	return nil
}

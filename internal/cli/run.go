package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"strideq/internal/config"
	"strideq/internal/job"
	"strideq/internal/logging"
	"strideq/internal/sched"
	"strideq/internal/trace"
)

func newRunCmd() *cobra.Command {
	var (
		policy     string
		maxTicks   int64
		sliceTicks int64
		traceSpec  string
		tracePath  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation and print each task's CPU share",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("policy") {
				cfg.Policy = policy
			}
			if cmd.Flags().Changed("max-ticks") {
				cfg.MaxTicks = maxTicks
			}
			if cmd.Flags().Changed("slice") {
				cfg.SliceTicks = sliceTicks
			}
			if cmd.Flags().Changed("trace") {
				cfg.Trace = config.Trace{Format: traceSpec, Path: tracePath}
			}
			if len(cfg.Tasks) == 0 {
				cfg.Tasks = demoTasks()
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			log := logger
			if !cmd.Flags().Changed("log-level") && !flagDebug && cfg.LogLevel != "" {
				log = logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			stats, err := runSimulation(ctx, cfg, log)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), cfg.Policy, stats)
		},
	}

	cmd.Flags().StringVarP(&policy, "policy", "p", "stride", "Selection policy (fifo, stride)")
	cmd.Flags().Int64Var(&maxTicks, "max-ticks", 1000, "Stop after this many ticks")
	cmd.Flags().Int64Var(&sliceTicks, "slice", 5, "Ticks per time slice")
	cmd.Flags().StringVar(&traceSpec, "trace", "", "Trace format (csv, sqlite, log); log writes events at info level to stderr")
	cmd.Flags().StringVar(&tracePath, "trace-path", "", "Trace output path for csv and sqlite")

	return cmd
}

// runSimulation spawns the configured tasks and drives the dispatcher to the
// end. An interrupted run still reports what it observed.
func runSimulation(ctx context.Context, cfg config.Config, log *slog.Logger) ([]sched.TaskStats, error) {
	policy, err := sched.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	opts := []sched.Option{
		sched.WithSliceTicks(cfg.SliceTicks),
		sched.WithMaxTicks(cfg.MaxTicks),
		sched.WithTickInterval(time.Duration(cfg.TickMS) * time.Millisecond),
		sched.WithLogger(log),
		sched.WithRenice(cfg.Renices()...),
	}
	sink, err := trace.Open(ctx, cfg.Trace, log)
	if err != nil {
		return nil, err
	}
	if sink != nil {
		defer func() {
			if err := sink.Close(); err != nil {
				log.Warn("close trace", "error", err)
			}
		}()
		opts = append(opts, sched.WithSink(sink))
	}

	d := sched.NewDispatcher(policy, opts...)
	for _, ts := range cfg.Tasks {
		work, err := job.FromSpec(ts.Work)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", ts.ID, err)
		}
		t, err := sched.NewTask(sched.TaskID(ts.ID), ts.Name, ts.EffectivePriority(), work)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", ts.ID, err)
		}
		if err := d.Spawn(ctx, t); err != nil {
			return nil, err
		}
	}

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return d.Stats(), err
	}
	return d.Stats(), nil
}

func demoTasks() []config.Task {
	return []config.Task{
		{ID: 1, Name: "low", Priority: config.Priority(2), Work: config.WorkSpec{Kind: config.WorkForever}},
		{ID: 2, Name: "mid", Priority: config.Priority(4), Work: config.WorkSpec{Kind: config.WorkForever}},
		{ID: 3, Name: "mid", Priority: config.Priority(4), Work: config.WorkSpec{Kind: config.WorkForever}},
	}
}

func writeReport(w io.Writer, policy string, stats []sched.TaskStats) error {
	var total int64
	for _, st := range stats {
		total += st.Ran
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "policy: %s\n", policy)
	fmt.Fprintln(tw, "ID\tNAME\tPRIORITY\tSELECTED\tTICKS\tSHARE\tSTATE")
	for _, st := range stats {
		share := 0.0
		if total > 0 {
			share = 100 * float64(st.Ran) / float64(total)
		}
		state := "live"
		if st.Finished {
			state = "exited"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%.1f%%\t%s\n",
			st.ID, st.Name, st.Priority, st.Selected, st.Ran, share, state)
	}
	return tw.Flush()
}

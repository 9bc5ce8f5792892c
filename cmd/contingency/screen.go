package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-contingency/pkg/centrality"
	"github.com/dd0wney/cluso-contingency/pkg/checkpoint"
	"github.com/dd0wney/cluso-contingency/pkg/config"
	"github.com/dd0wney/cluso-contingency/pkg/health"
	"github.com/dd0wney/cluso-contingency/pkg/logging"
	"github.com/dd0wney/cluso-contingency/pkg/metrics"
	"github.com/dd0wney/cluso-contingency/pkg/network"
	"github.com/dd0wney/cluso-contingency/pkg/report"
	"github.com/dd0wney/cluso-contingency/pkg/screener"
	"github.com/dd0wney/cluso-contingency/pkg/server"
)

var errOrdersFailed = errors.New("one or more orders failed")

var screenBindings = append([]flagBinding{
	{"num_processors", "processors"},
	{"task_timeout", "timeout"},
	{"metric", "metric"},
	{"output_dir", "output"},
	{"normalize", "normalize"},
	{"top_edges", "top"},
	{"checkpoint_dir", "checkpoint-dir"},
	{"metrics_addr", "metrics-addr"},
	{"labeling.strategy", "label"},
	{"labeling.value", "label-value"},
}, inputBindings...)

func (a *app) newScreenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screen [input]",
		Short: "Screen every configured order and write per-edge criticality",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runScreen,
	}
	fs := cmd.Flags()
	addInputFlags(fs)
	fs.IntP("processors", "p", screener.DefaultNumProcessors, "parallel evaluation workers")
	fs.Duration("timeout", screener.DefaultTaskTimeout, "per-contingency evaluation timeout")
	fs.StringP("metric", "m", centrality.CurrentFlowBetweennessName, fmt.Sprintf("centrality metric %v", centrality.Names()))
	fs.StringP("output", "o", ".", "output directory")
	fs.Bool("normalize", false, "divide criticality by C(m-1, k-1) * n")
	fs.Int("top", 10, "critical edges listed in the summary")
	fs.String("checkpoint-dir", "", "reuse and store screened orders in this directory")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address while running")
	fs.String("label", "", "also label edges: threshold or quantile")
	fs.Float64("label-value", 0.1, "labeling threshold or quantile")
	return cmd
}

func (a *app) runScreen(cmd *cobra.Command, args []string) error {
	cfg, err := a.load(cmd, args, screenBindings)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry()
	checker := health.NewChecker()
	var progress health.Progress
	checker.Register("screening", health.ProgressCheck(&progress))
	checker.Register("memory", health.MemoryCheck(0))
	if cfg.MetricsAddr != "" {
		srv := server.NewMetricsServer(cfg.MetricsAddr, reg,
			server.WithLogger(a.logger), server.WithHealth(checker))
		if err := srv.Listen(); err != nil {
			return err
		}
		go func() {
			if err := srv.Serve(ctx); err != nil {
				a.logger.Error("metrics server failed", logging.Error(err))
			}
		}()
		defer srv.Shutdown(server.DefaultShutdownTimeout)
	}

	nets, err := a.loadNetworks(cfg)
	if err != nil {
		return err
	}
	metric, err := centrality.Lookup(cfg.Metric)
	if err != nil {
		return err
	}
	var labeling report.Labeling
	if cfg.Labeling.Strategy != "" {
		if labeling, err = report.NewLabeling(cfg.Labeling.Strategy, cfg.Labeling.Value); err != nil {
			return err
		}
	}

	opts := []screener.Option{
		screener.WithMetric(metric),
		screener.WithNumProcessors(cfg.NumProcessors),
		screener.WithTaskTimeout(cfg.TaskTimeout),
		screener.WithLogger(a.logger),
		screener.WithMetrics(reg),
	}
	if cfg.CheckpointDir != "" {
		store, err := checkpoint.NewStore(cfg.CheckpointDir,
			checkpoint.WithLogger(a.logger), checkpoint.WithMetrics(reg))
		if err != nil {
			return err
		}
		opts = append(opts, screener.WithCheckpoint(store))
		checker.Register("checkpoints", health.DirectoryCheck(store.Dir()))
	}
	progress.Expect(len(nets) * len(cfg.Orders))

	summary := report.NewSummary(metric.Name(), cfg.NumProcessors)
	log := a.logger.With(logging.RunID(summary.RunID))
	log.Info("screening started",
		logging.Count(len(nets)), logging.Metric(metric.Name()), logging.Workers(cfg.NumProcessors))

	for _, net := range nets {
		s, err := screener.NewExhaustiveScreener(net, opts...)
		if err != nil {
			return err
		}
		ns := summary.AddNetwork(net.Name(), net.NumNodes(), net.NumEdges())
		for _, order := range cfg.Orders {
			result := screenOrder(ctx, s, order, cfg, labeling, log)
			ns.Orders = append(ns.Orders, result)
			if result.Error != "" {
				progress.Finish(errors.New(result.Error))
			} else {
				progress.Finish(nil)
			}
			if ctx.Err() != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	summary.Finish()
	summaryPath := filepath.Join(cfg.OutputDir, report.SummaryFileName)
	if err := report.WriteSummaryFile(summaryPath, summary); err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), summary)
	log.Info("screening finished", logging.Path(summaryPath),
		logging.Latency(summary.FinishedAt.Sub(summary.StartedAt)))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("screening interrupted: %w", err)
	}
	if summary.Failed() {
		return errOrdersFailed
	}
	return nil
}

// screenOrder computes and writes one order. Failures are reported in the
// returned summary rather than aborting the run.
func screenOrder(ctx context.Context, s *screener.ExhaustiveScreener, order int, cfg *config.Config, labeling report.Labeling, log logging.Logger) (out report.OrderSummary) {
	net := s.Network()
	out.Order = order
	log = log.With(logging.Network(net.Name()), logging.Order(order))
	start := time.Now()
	defer func() { out.Duration = report.Duration(time.Since(start)) }()

	fail := func(err error) report.OrderSummary {
		log.Error("order failed", logging.Error(err))
		out.Error = err.Error()
		return out
	}

	ds, err := s.Deltas(ctx, order)
	if err != nil {
		return fail(err)
	}
	out.Contingencies = ds.Len()

	var scores map[network.Edge]float64
	if cfg.Normalize {
		scores, err = s.NormalizedGlobalDeltas(ctx, order)
	} else {
		scores, err = s.GlobalDeltas(ctx, order)
	}
	if err != nil {
		return fail(err)
	}

	crit, err := report.FromScores(net, scores)
	if err != nil {
		return fail(err)
	}
	path := report.CriticalityPath(cfg.OutputDir, net.Name(), order)
	if err := report.WriteCriticalityFile(path, crit); err != nil {
		return fail(err)
	}
	out.Output = path
	out.TopEdges = report.TopEdges(crit, cfg.TopEdges)

	if labeling != nil {
		labelPath := filepath.Join(filepath.Dir(path), report.LabelFileName(labeling))
		if err := report.WriteLabelsFile(labelPath, labeling.Label(crit)); err != nil {
			return fail(err)
		}
	}

	log.Info("order written", logging.Path(path), logging.Count(out.Contingencies))
	return out
}

func printSummary(w io.Writer, s *report.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NETWORK\tORDER\tCONTINGENCIES\tDURATION\tRESULT")
	for _, n := range s.Networks {
		for _, o := range n.Orders {
			result := o.Output
			if o.Error != "" {
				result = "error: " + o.Error
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", n.Name, o.Order, o.Contingencies,
				time.Duration(o.Duration).Round(time.Millisecond), result)
		}
	}
	tw.Flush()
}

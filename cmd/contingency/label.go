package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-contingency/pkg/logging"
	"github.com/dd0wney/cluso-contingency/pkg/report"
)

var errNoStrategy = errors.New("labeling.strategy is required (--strategy threshold|quantile)")

var labelBindings = []flagBinding{
	{"labeling.strategy", "strategy"},
	{"labeling.value", "value"},
	{"output_dir", "output"},
}

func (a *app) newLabelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label [criticality.csv...]",
		Short: "Classify edges from previously written criticality files",
		Long: "label reads src,dst,delta files and writes src,dst,class files next to them. " +
			"Without arguments every criticality file under the output directory is labeled.",
		RunE: a.runLabel,
	}
	fs := cmd.Flags()
	fs.String("strategy", "", "threshold or quantile")
	fs.Float64("value", 0.1, "threshold on min-max scaled scores, or fraction of edges marked critical")
	fs.StringP("output", "o", ".", "directory searched when no files are given")
	return cmd
}

func (a *app) runLabel(cmd *cobra.Command, args []string) error {
	// Positional arguments are criticality files, not the network input.
	cfg, err := a.load(cmd, nil, labelBindings)
	if err != nil {
		return err
	}
	if cfg.Labeling.Strategy == "" {
		return errNoStrategy
	}
	labeling, err := report.NewLabeling(cfg.Labeling.Strategy, cfg.Labeling.Value)
	if err != nil {
		return err
	}

	files := args
	if len(files) == 0 {
		pattern := filepath.Join(cfg.OutputDir, "exhaustive_*_*", report.CriticalityFileName)
		if files, err = filepath.Glob(pattern); err != nil {
			return fmt.Errorf("search %s: %w", pattern, err)
		}
		if len(files) == 0 {
			return fmt.Errorf("no criticality files under %s", cfg.OutputDir)
		}
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tCRITICAL\tREGULAR\tZERO\tOUTPUT")
	for _, path := range files {
		crit, err := report.ReadCriticalityFile(path)
		if err != nil {
			tw.Flush()
			return err
		}
		labels := labeling.Label(crit)
		out := filepath.Join(filepath.Dir(path), report.LabelFileName(labeling))
		if err := report.WriteLabelsFile(out, labels); err != nil {
			tw.Flush()
			return err
		}
		counts := report.CountClasses(labels)
		a.logger.Info("labels written", logging.Path(out), logging.Count(len(labels)))
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", path,
			counts[report.ClassCritical], counts[report.ClassRegular], counts[report.ClassZero], out)
	}
	return tw.Flush()
}

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-contingency/pkg/logging"
)

func (a *app) newEnumerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enumerate [input]",
		Short: "Count valid and islanding contingencies without scoring them",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runEnumerate,
	}
	addInputFlags(cmd.Flags())
	return cmd
}

func (a *app) runEnumerate(cmd *cobra.Command, args []string) error {
	cfg, err := a.load(cmd, args, inputBindings)
	if err != nil {
		return err
	}
	nets, err := a.loadNetworks(cfg)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NETWORK\tNODES\tEDGES\tORDER\tVALID\tISLANDING\tTOTAL")
	for _, net := range nets {
		for _, order := range cfg.Orders {
			start := time.Now()
			p, err := net.Partition(order)
			if err != nil {
				tw.Flush()
				return fmt.Errorf("%s order %d: %w", net.Name(), order, err)
			}
			a.logger.Debug("partition enumerated", logging.Network(net.Name()),
				logging.Order(order), logging.Latency(time.Since(start)))
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n", net.Name(), net.NumNodes(), net.NumEdges(),
				order, len(p.Valid), len(p.Islanding), p.Total())
		}
	}
	return tw.Flush()
}

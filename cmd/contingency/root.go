package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dd0wney/cluso-contingency/pkg/config"
	"github.com/dd0wney/cluso-contingency/pkg/logging"
	"github.com/dd0wney/cluso-contingency/pkg/network"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	logger  logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: logging.NewNopLogger()}

	root := &cobra.Command{
		Use:           "contingency",
		Short:         "Exhaustive k-contingency screening of network edges",
		Long:          "contingency removes every combination of k edges that keeps a network connected, recomputes node centrality, and ranks edges by how much their loss moves it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default .contingency.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(a.newScreenCmd(), a.newEnumerateCmd(), a.newLabelCmd())
	return root
}

// flagBinding maps a config key to a flag name.
type flagBinding struct {
	key  string
	flag string
}

var inputBindings = []flagBinding{
	{"format", "format"},
	{"delimiter", "delimiter"},
	{"orders", "orders"},
	{"max_contingencies", "max-contingencies"},
}

func addInputFlags(fs *pflag.FlagSet) {
	fs.String("format", config.FormatEdgelist, "input format: edgelist or graph6")
	fs.String("delimiter", "", "edge-list field delimiter (default: whitespace)")
	fs.IntSliceP("orders", "k", []int{1}, "contingency orders to screen")
	fs.Uint64("max-contingencies", 0, "refuse orders with more combinations than this (0: no limit)")
}

// load reads config file, environment and the flags of cmd into a Config
// and configures logging. A positional argument overrides input.
func (a *app) load(cmd *cobra.Command, args []string, bindings []flagBinding) (*config.Config, error) {
	if err := config.Init(a.v, a.cfgFile); err != nil {
		return nil, err
	}

	bindings = append(slices.Clone(bindings), flagBinding{"log_level", "log-level"})
	for _, b := range bindings {
		f := cmd.Flags().Lookup(b.flag)
		if f == nil {
			return nil, fmt.Errorf("unknown flag %q", b.flag)
		}
		if err := a.v.BindPFlag(b.key, f); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", b.flag, err)
		}
	}
	if len(args) > 0 {
		a.v.Set("input", args[0])
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return nil, err
	}

	level, _ := logging.LookupLevel(cfg.LogLevel)
	logger := logging.NewJSONLogger(cmd.ErrOrStderr(), level)
	logging.SetDefaultLogger(logger)
	a.logger = logger
	if used := config.ConfigFileUsed(a.v); used != "" {
		a.logger.Debug("config loaded", logging.Path(used))
	}
	return cfg, nil
}

// loadNetworks reads the configured input. Edge lists yield one network,
// graph6 files one per line.
func (a *app) loadNetworks(cfg *config.Config) ([]*network.Network, error) {
	if err := cfg.RequireInput(); err != nil {
		return nil, err
	}
	netOpts := []network.Option{
		network.WithLogger(a.logger),
		network.WithMaxContingencies(cfg.MaxContingencies),
	}

	if cfg.Format == config.FormatGraph6 {
		nets, err := network.LoadGraph6(cfg.Input, netOpts...)
		if err != nil {
			return nil, err
		}
		if len(nets) == 0 {
			return nil, fmt.Errorf("%s: no graphs found", cfg.Input)
		}
		return nets, nil
	}

	opts := []network.EdgelistOption{network.WithNetworkOptions(netOpts...)}
	if cfg.Delimiter != "" {
		opts = append(opts, network.WithDelimiter(cfg.Delimiter))
	}
	net, err := network.LoadEdgelist(cfg.Input, opts...)
	if err != nil {
		return nil, err
	}
	return []*network.Network{net}, nil
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bamdow/folio/internal/config"
)

var (
	configFile string
	preset     string
	verbose    bool
	logger     = zap.NewNop()

	// scatter
	hold time.Duration

	// settle
	duration  time.Duration
	seed      int64
	pushAt    time.Duration
	pushes    []string
	svgOut    string
	energyOut string
	jsonOut   string

	// projects
	listPage     int
	listSize     int
	listCategory string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "folio",
		Short:         "portfolio site tools: the gallery backend and the gravity page effect",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zc := zap.NewProductionConfig()
			if verbose {
				zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := zc.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "material preset")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the project gallery API and uploads",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	scatterCmd := &cobra.Command{
		Use:   "scatter [url]",
		Short: "drop the elements of a live page in Chrome, then put them back",
		Args:  cobra.ExactArgs(1),
		RunE:  runScatter,
	}
	scatterCmd.Flags().DurationVar(&hold, "hold", 0, "restore after this long (0 waits for interrupt)")

	liveCmd := &cobra.Command{
		Use:   "live [fixture]",
		Short: "play with a page fixture in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}

	settleCmd := &cobra.Command{
		Use:   "settle [fixture]",
		Short: "drop a page fixture headlessly and report how it settles",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSettle,
	}
	settleCmd.Flags().DurationVar(&duration, "time", 5*time.Second, "simulated duration")
	settleCmd.Flags().Int64Var(&seed, "seed", 1, "random seed for initial tilt")
	settleCmd.Flags().DurationVar(&pushAt, "push-at", 500*time.Millisecond, "when to apply --push")
	settleCmd.Flags().StringSliceVar(&pushes, "push", nil, "pointer-down at client x,y (repeatable)")
	settleCmd.Flags().StringVar(&svgOut, "svg", "", "write the settled layout as SVG")
	settleCmd.Flags().StringVar(&energyOut, "energy-svg", "", "write the kinetic energy plot as SVG")
	settleCmd.Flags().StringVar(&jsonOut, "json", "", "write the settled layout as JSON (- for stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list material presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-8s restitution=%.2f friction=%.2f air=%.3f density=%.4f\n",
					name, p.Restitution, p.Friction, p.AirFriction, p.Density)
			}
			return nil
		},
	}

	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "inspect the gallery database",
	}
	projectsListCmd := &cobra.Command{
		Use:   "list",
		Short: "list projects",
		Args:  cobra.NoArgs,
		RunE:  runProjectsList,
	}
	projectsListCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	projectsListCmd.Flags().IntVar(&listSize, "size", 0, "page size (default from config)")
	projectsListCmd.Flags().StringVar(&listCategory, "category", "All", "category filter")
	projectsShowCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "show one project, rendering its readme",
		Args:  cobra.ExactArgs(1),
		RunE:  runProjectsShow,
	}
	projectsCmd.AddCommand(projectsListCmd, projectsShowCmd)

	rootCmd.AddCommand(serveCmd, scatterCmd, liveCmd, settleCmd, presetsCmd, projectsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig applies --config then --preset over the defaults.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}
	if preset != "" {
		c, err := cfg.WithPreset(preset)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fixturePath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "testdata/portfolio.html"
}

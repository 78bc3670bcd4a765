package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sigma-mcp/internal/config"
	"sigma-mcp/internal/logging"
	"sigma-mcp/internal/mcp"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "sigma-mcp",
	Short: "Sigma-MCP is a Design of Experiments and process capability MCP Server",
	Long: `A specialized MCP Server for Six Sigma style process studies: full factorial
experiment designs, main effect and interaction analysis, a linear transfer
function and Monte Carlo simulation of process capability (Cp, Cpk, DPMO).

Without a subcommand the server speaks MCP on stdin/stdout.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("Sigma-MCP starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info().Msg("MCP Server starting Stdio loop")
		server := mcp.NewServer(mcp.ServerDeps{
			Version:    Version,
			Simulation: cfg.Simulation,
		})
		if err := server.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		log.Info().Msg("MCP Server stopped")
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.AddCommand(NewDesignCommand(), NewSimulateCommand(), NewEvalCommand())
}

// simulationSettings returns the loaded simulation settings, or the defaults
// when the command runs without the root pre-run (as in tests).
func simulationSettings() config.SimulationConfig {
	if cfg != nil {
		return cfg.Simulation
	}
	return config.DefaultSimulation()
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerica/cen/cmd/cen/commands"
	"github.com/nerica/cen/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cen",
	Short: "CEN - Controlled English knowledge engine",
	Long: `CEN - a Controlled English knowledge engine.

CEN compiles CE sentences into a typed, multiply-inherited ontology graph
and runs single-hop forward-chaining inference over it.

Available commands:
  tell      - Submit CE sentences to the store
  ask       - Ask a question against the store
  load      - Load a model file or manifest directory
  concepts  - List concepts
  instances - List instances
  serve     - Start the admin server and agent polling loop
  am        - Show current configuration
  version   - Show version information

Examples:
  cen tell "there is a person named 'Fred'"
  cen ask "what is Fred?"
  cen load models/solar-system.ce
  cen serve`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(false); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if verbose, _ := cmd.Flags().GetCount("verbose"); verbose > 0 {
			logger.SetDebug()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail)")

	rootCmd.AddCommand(commands.TellCmd)
	rootCmd.AddCommand(commands.AskCmd)
	rootCmd.AddCommand(commands.LoadCmd)
	rootCmd.AddCommand(commands.ConceptsCmd)
	rootCmd.AddCommand(commands.InstancesCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerica/cen/am"
	"github.com/nerica/cen/errors"
	"github.com/nerica/cen/interpreter"
)

// AskCmd asks a question against the store.
var AskCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question against the store",
	Long: `Answer a question from the knowledge in the store.

Examples:
  cen ask "what is Mars?"
  cen ask "who does Fred know?"
  cen ask "list instances of planet"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		config, err := am.Load()
		if err != nil {
			return err
		}
		store, j, err := openStore(config)
		if err != nil {
			return err
		}
		if j != nil {
			defer j.Close()
		}

		answer, err := interpreter.Ask(store, question)
		if err != nil {
			if errors.IsNoMatchError(err) {
				return fmt.Errorf("I don't understand %q", question)
			}
			return err
		}
		fmt.Println(answer)
		return nil
	},
}

package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nerica/cen/am"
	"github.com/nerica/cen/ce"
	"github.com/nerica/cen/models"
)

// TellCmd submits CE sentences to the store.
var TellCmd = &cobra.Command{
	Use:   "tell <sentence> [sentence...]",
	Short: "Submit CE sentences to the store",
	Long: `Submit one or more CE sentences. Each argument may contain several
newline-separated sentences. The {now} and {uid} placeholders are
substituted before submission.

Examples:
  cen tell "conceptualise a ~ planet ~ P"
  cen tell "there is a planet named 'Mars'"
  cen tell "the planet 'Mars' has '2' as moon count"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")

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

		failed := 0
		for _, arg := range args {
			for _, line := range strings.Split(arg, "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				sentence := models.Substitute(line)

				var outcome ce.Outcome
				if j != nil {
					outcome, err = j.Record(store, sentence, source)
					if err != nil {
						return err
					}
				} else {
					outcome = store.Submit(sentence, source)
				}

				if outcome.Success() {
					pterm.Success.Printfln("%s: %s", outcome.Type, sentence)
				} else {
					failed++
					pterm.Error.Printfln("%s: %s", outcome.ErrorMessage(), sentence)
				}
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d sentence(s) not accepted", failed)
		}
		return nil
	},
}

func init() {
	TellCmd.Flags().String("source", "cli", "Provenance source recorded on each sentence")
}

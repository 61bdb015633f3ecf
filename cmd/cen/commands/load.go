package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nerica/cen/am"
	"github.com/nerica/cen/models"
)

// LoadCmd loads a model file or manifest directory into the store.
var LoadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Load a model file or manifest directory",
	Long: `Load CE sentences from a model file, or from a directory containing a
manifest.yaml naming the model files to load in order.

Sentences that fail to parse are reported but do not stop the load.

Examples:
  cen load models/solar-system.ce
  cen load models/`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

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

		sentences, err := models.Load(path)
		if err != nil {
			return err
		}

		accepted := 0
		for _, sentence := range sentences {
			sentence = models.Substitute(sentence)
			outcome := store.Submit(sentence, "model:"+path)
			if j != nil {
				if err := j.Append(sentence, "model:"+path, outcome); err != nil {
					return err
				}
			}
			if outcome.Success() {
				accepted++
			} else {
				pterm.Warning.Printfln("%s: %s", outcome.ErrorMessage(), sentence)
			}
		}

		fmt.Printf("Loaded %d/%d sentences (%d concepts, %d instances)\n",
			accepted, len(sentences), store.ConceptCount(), store.InstanceCount())
		return nil
	},
}

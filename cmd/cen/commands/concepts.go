package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nerica/cen/am"
)

// ConceptsCmd lists the concepts in the store.
var ConceptsCmd = &cobra.Command{
	Use:   "concepts [name]",
	Short: "List concepts, or show one concept's CE",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		if len(args) == 1 {
			concept := store.ConceptByName(args[0])
			if concept == nil {
				return fmt.Errorf("concept %q not found", args[0])
			}
			fmt.Println(concept.CE())
			return nil
		}

		rows := pterm.TableData{{"ID", "Name", "Synonyms", "Instances"}}
		for _, concept := range store.Concepts() {
			rows = append(rows, []string{
				fmt.Sprintf("%d", concept.ID()),
				concept.Name(),
				strings.Join(concept.Synonyms(), ", "),
				fmt.Sprintf("%d", len(concept.Instances())),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

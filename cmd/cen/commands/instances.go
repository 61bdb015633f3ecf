package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nerica/cen/am"
)

// InstancesCmd lists the instances in the store.
var InstancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "List instances",
	Long: `List instances, optionally restricted to one concept.

Examples:
  cen instances
  cen instances --concept planet
  cen instances --concept entity --recursive`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conceptName, _ := cmd.Flags().GetString("concept")
		recursive, _ := cmd.Flags().GetBool("recursive")
		showCE, _ := cmd.Flags().GetBool("ce")

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

		instances := store.Instances(conceptName, recursive)
		if showCE {
			for _, instance := range instances {
				fmt.Println(instance.CE())
			}
			return nil
		}

		rows := pterm.TableData{{"ID", "Name", "Concept", "Gist"}}
		for _, instance := range instances {
			conceptLabel := ""
			if c := instance.Concept(); c != nil {
				conceptLabel = c.Name()
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", instance.ID()),
				instance.Name(),
				conceptLabel,
				instance.Gist(),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

func init() {
	InstancesCmd.Flags().String("concept", "", "Restrict to instances of this concept")
	InstancesCmd.Flags().Bool("recursive", false, "Include instances of descendant concepts")
	InstancesCmd.Flags().Bool("ce", false, "Print full CE sentences instead of a table")
}

package commands

import (
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/nerica/cen/am"
	"github.com/nerica/cen/errors"
)

// AmCmd shows the effective configuration.
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Show the effective configuration",
	Long: `Print the merged configuration as TOML: defaults, then ~/.cen/am.toml,
then the nearest project am.toml, then CEN_-prefixed environment
variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := am.Load()
		if err != nil {
			return err
		}
		out, err := toml.Marshal(config)
		if err != nil {
			return errors.Wrap(err, "failed to render config")
		}
		fmt.Print(string(out))

		if path, err := am.UserConfigPath(); err == nil {
			fmt.Printf("\n# user config: %s\n", path)
		}
		return nil
	},
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configSave string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the configuration in effect.",
	Long: "`config` prints the configuration after the file, the .env files " +
		"and the environment are applied. `config --save zeal.yaml` writes " +
		"it to a file that --config accepts.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configSave == "" {
			return cfg.Dump(cmd.OutOrStdout())
		}

		if err := cfg.Save(configSave); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "saved to %s\n", configSave)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().StringVar(&configSave, "save", "",
		"write the configuration to this YAML file")
}

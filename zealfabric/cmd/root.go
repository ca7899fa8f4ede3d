// Package cmd provides the command-line interface of the Zeal fabric.
package cmd

import (
	"io"
	"log"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/zealfabric/config"
	"github.com/sarchlab/zealfabric/machine"
	"github.com/sarchlab/zealfabric/sim"
)

var (
	configPath string
	romImage   string
	verbose    bool

	cfg    config.Config
	logger = log.New(io.Discard, "", 0)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "zealfabric",
	Short: "Inspect and drive the memory and I/O fabric of a Zeal 8-bit computer.",
	Long: `zealfabric assembles the address map, the devices and the DMA ` +
		`engine of a Zeal 8-bit computer. It can print the map, run DMA ` +
		`descriptor chains and serve the machine over HTTP.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "",
		"YAML configuration of the machine")
	flags.BoolVarP(&verbose, "verbose", "v", false,
		"print the configuration and how the machine is assembled")
	flags.StringVar(&romImage, "rom", "",
		"image flashed into the ROM, overrides "+config.EnvROMImage)
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	err := config.LoadEnvFiles()
	if err != nil {
		return err
	}

	cfg = config.Default()
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}

	err = cfg.ApplyEnv()
	if err != nil {
		return err
	}

	if romImage != "" {
		cfg.ROM.Image = romImage
	}

	if verbose {
		logger = log.New(cmd.ErrOrStderr(), "", 0)

		err = cfg.Dump(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}

	return cfg.Validate()
}

// buildMachine assembles the configured machine. A nil idGen keeps the
// sequential trace IDs.
func buildMachine(idGen sim.IDGenerator) (*machine.Machine, error) {
	return machine.MakeBuilder().
		WithConfig(cfg).
		WithLogger(logger).
		WithIDGenerator(idGen).
		Build()
}

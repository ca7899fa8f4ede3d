package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/zealfabric/monitoring"
)

var (
	servePort int
	serveOpen bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the machine over HTTP until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := buildMachine(nil)
		if err != nil {
			return err
		}

		port := cfg.Monitor.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		monitor := monitoring.NewMonitor(m).WithPortNumber(port)

		url, err := monitor.StartServer()
		if err != nil {
			return err
		}

		if serveOpen {
			if err := browser.OpenURL(url); err != nil {
				logger.Printf("cannot open %s: %v", url, err)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), 5*time.Second)
		defer cancel()

		return monitor.StopServer(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0,
		"port of the monitor, 0 picks a free one")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false,
		"open the monitor in a browser")
}

// Command rtlab runs the sampling pipeline on the host against a board
// connected over UART or against a mocked board.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/itohio/rtlab/pkg/config"
)

// globalOpts are the flags shared by every command.
type globalOpts struct {
	configPath string
	port       string
	mock       bool
}

// load reads the configuration file and applies flag overrides.
func (g *globalOpts) load() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.port != "" {
		cfg.Serial.Port = g.port
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOpts{}

	root := &cobra.Command{
		Use:   "rtlab",
		Short: "Sampling pipeline host for the RTOS lab board",
		Long: `rtlab samples an analog input once per period, averages the last N
readings, maps the mean to an indicator tier and PWM duty, and prints
"Media: <mean>" lines.

Examples:
  rtlab run --mock
  rtlab run -p /dev/ttyACM0 --mqtt tcp://localhost:1883 --metrics :9100
  rtlab classify 2800 3600 4095
  rtlab config init rtlab.yaml`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "config.yaml", "configuration file path")
	root.PersistentFlags().StringVarP(&g.port, "port", "p", "", "serial port override (e.g., COM3 or /dev/ttyACM0)")
	root.PersistentFlags().BoolVar(&g.mock, "mock", false, "use a mocked board instead of the serial port")

	root.AddCommand(
		newRunCmd(g),
		newGUICmd(g),
		newClassifyCmd(g),
		newPortsCmd(),
		newConfigCmd(),
	)
	return root
}

package main

import (
	"log"

	"github.com/spf13/cobra"
)

type runOpts struct {
	mqttBroker  string
	metricsAddr string
	echo        bool
	duty        bool
	decimals    int
}

func newRunCmd(g *globalOpts) *cobra.Command {
	var o runOpts

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline and print reports until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("mqtt") {
				cfg.MQTT.Broker = o.mqttBroker
			}
			if flags.Changed("metrics") {
				cfg.Metrics.Addr = o.metricsAddr
			}
			if flags.Changed("echo") {
				cfg.Report.EchoHistory = o.echo
			}
			if flags.Changed("duty") {
				cfg.Report.DutyLine = o.duty
			}
			if flags.Changed("decimals") {
				cfg.Report.Decimals = o.decimals
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			dev, err := openDevice(cfg, g.mock)
			if err != nil {
				return err
			}

			s, err := newSession(cfg, dev, cmd.OutOrStdout())
			if err != nil {
				dev.Close()
				return err
			}
			defer s.Close()

			log.Printf("Running: history %d, queue %d, sample %v, aggregate %v",
				cfg.Pipeline.HistorySize, cfg.Pipeline.QueueSize,
				cfg.Pipeline.SamplePeriod, cfg.Pipeline.AggregatePeriod)

			err = s.Run(cmd.Context())
			st := s.pipeline.Stats.Snapshot()
			log.Printf("Stopped: %d samples, %d faults, %d reports, %d dropped",
				st.Samples, st.Faults, st.Reports, st.Dropped)
			return err
		},
	}

	cmd.Flags().StringVar(&o.mqttBroker, "mqtt", "", "MQTT broker URL for report lines (e.g. tcp://localhost:1883)")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics", "", "listen address for /metrics and /status (e.g. :9100)")
	cmd.Flags().BoolVar(&o.echo, "echo", false, "print every history slot before the mean")
	cmd.Flags().BoolVar(&o.duty, "duty", false, "print the PWM duty after the mean")
	cmd.Flags().IntVarP(&o.decimals, "decimals", "d", 0, "print the mean with this many decimals")
	return cmd
}

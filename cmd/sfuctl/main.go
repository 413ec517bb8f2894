// Command sfuctl runs and inspects a pool of mediasoup workers.
package main

import (
	"os"

	"github.com/spf13/cobra"

	mediasoup "github.com/sfukit/mediasoup-go"
	"github.com/sfukit/mediasoup-go/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Default()

	root := &cobra.Command{
		Use:          "sfuctl",
		Short:        "Run and inspect mediasoup workers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Load(&cfg, cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&cfg.Config, config.FlagName("Config"), "c", "sfuctl.toml", "configuration file")
	flags.IntVar(&cfg.NumWorkers, config.FlagName("NumWorkers"), cfg.NumWorkers, "number of worker processes")
	flags.StringVar(&cfg.WorkerBin, config.FlagName("WorkerBin"), cfg.WorkerBin, "mediasoup-worker binary")
	flags.StringVar(&cfg.LogLevel, config.FlagName("LogLevel"), cfg.LogLevel, "worker log level (debug, warn, error, none)")
	flags.StringSliceVar(&cfg.LogTags, config.FlagName("LogTags"), cfg.LogTags, "worker log tags")
	flags.IntVar(&cfg.RtcMinPort, config.FlagName("RtcMinPort"), cfg.RtcMinPort, "lowest RTC port")
	flags.IntVar(&cfg.RtcMaxPort, config.FlagName("RtcMaxPort"), cfg.RtcMaxPort, "highest RTC port")
	flags.StringVar(&cfg.DtlsCertFile, config.FlagName("DtlsCertFile"), cfg.DtlsCertFile, "DTLS certificate (PEM)")
	flags.StringVar(&cfg.DtlsKeyFile, config.FlagName("DtlsKeyFile"), cfg.DtlsKeyFile, "DTLS private key (PEM)")
	flags.StringVar(&cfg.AdminAddr, config.FlagName("AdminAddr"), cfg.AdminAddr, "admin API listen address")
	flags.StringVar(&cfg.MetricsPath, config.FlagName("MetricsPath"), cfg.MetricsPath, "prometheus metrics path, empty to disable")

	root.AddCommand(
		newRunCmd(&cfg),
		newValidateCmd(&cfg),
		newCapabilitiesCmd(),
	)
	return root
}

func workerOptions(cfg config.Config) []mediasoup.Option {
	options := []mediasoup.Option{
		mediasoup.WithLogLevel(mediasoup.WorkerLogLevel(cfg.LogLevel)),
		mediasoup.WithLogTags(logTags(cfg.LogTags)...),
		mediasoup.WithRtcMinPort(uint16(cfg.RtcMinPort)),
		mediasoup.WithRtcMaxPort(uint16(cfg.RtcMaxPort)),
	}
	if cfg.WorkerBin != "" {
		options = append(options, mediasoup.WithWorkerBin(cfg.WorkerBin))
	}
	if cfg.DtlsCertFile != "" {
		options = append(options, mediasoup.WithDtlsCert(cfg.DtlsCertFile, cfg.DtlsKeyFile))
	}
	return options
}

func updatableSettings(cfg config.Config) mediasoup.WorkerUpdatableSettings {
	return mediasoup.WorkerUpdatableSettings{
		LogLevel: mediasoup.WorkerLogLevel(cfg.LogLevel),
		LogTags:  logTags(cfg.LogTags),
	}
}

func logTags(tags []string) []mediasoup.WorkerLogTag {
	out := make([]mediasoup.WorkerLogTag, 0, len(tags))
	for _, tag := range tags {
		out = append(out, mediasoup.WorkerLogTag(tag))
	}
	return out
}

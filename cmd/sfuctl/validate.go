package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	mediasoup "github.com/sfukit/mediasoup-go"
	"github.com/sfukit/mediasoup-go/internal/config"
)

func newValidateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and print the effective values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration:\n%w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}
}

func newCapabilitiesCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "Print the RTP capabilities supported by mediasoup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caps := mediasoup.GetSupportedRtpCapabilities()
			if kind != "" {
				codecs := caps.Codecs[:0]
				for _, codec := range caps.Codecs {
					if string(codec.Kind) == kind {
						codecs = append(codecs, codec)
					}
				}
				caps.Codecs = codecs
				exts := caps.HeaderExtensions[:0]
				for _, ext := range caps.HeaderExtensions {
					if string(ext.Kind) == kind {
						exts = append(exts, ext)
					}
				}
				caps.HeaderExtensions = exts
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(caps)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only audio or video entries")
	return cmd
}

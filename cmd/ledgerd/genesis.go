package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blockberries/ledgerkit/internal/config"
)

func newGenesisCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "genesis",
		Short: "Print the genesis document built from the config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			doc, err := cfg.GenesisDoc(time.Now().UTC())
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("encode genesis: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

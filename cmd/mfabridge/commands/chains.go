package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/mfabridge/internal/config"
	"github.com/MrEthical07/mfabridge/module"
)

func newChainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chains",
		Short: "List the configured module chains",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, ch := range cfg.Chains {
				marker := " "
				if ch.Name == cfg.Engine.ChainName {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, ch.Name)
				for _, e := range ch.Modules {
					flag, _ := module.ParseFlag(e.Flag)
					fmt.Fprintf(out, "    %-10s %s%s\n", flag, e.Type, optionKeys(e.Options))
				}
			}
			return nil
		},
	}
}

func optionKeys(options map[string]any) string {
	if len(options) == 0 {
		return ""
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return " (" + strings.Join(keys, ", ") + ")"
}

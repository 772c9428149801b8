package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/stager/pkg/config"
	"github.com/arthur-debert/stager/pkg/style"
	"github.com/arthur-debert/stager/pkg/unpack"
)

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies [path]",
		Short: MsgStrategiesShort,
		Long:  MsgStrategiesLong,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := unpack.DefaultRegistry(unpack.Options{ExternalTools: config.Get().Extract.ExternalTools})

			selected := ""
			if len(args) == 1 {
				s, err := registry.Select(args[0])
				if err != nil {
					return err
				}
				selected = s.Name()
			}

			var lines []style.StrategyLine
			for _, s := range registry.Strategies() {
				lines = append(lines, style.StrategyLine{
					Name:     s.Name(),
					Kind:     s.Kind().String(),
					Selected: s.Name() == selected,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), style.RenderStrategies(lines))
			return nil
		},
	}
}

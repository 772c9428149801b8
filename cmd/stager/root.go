package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/arthur-debert/stager/internal/version"
	"github.com/arthur-debert/stager/pkg/config"
	"github.com/arthur-debert/stager/pkg/logging"
)

// configKeyAnnotation marks a flag whose value overrides a config key.
const configKeyAnnotation = "stager_config_key"

// rootOptions holds flags shared across commands.
type rootOptions struct {
	verbosity  int
	configPath string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "stager",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetupLogger(opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")

			cfg, err := config.Load(config.LoadOptions{
				Path:      opts.configPath,
				Overrides: flagOverrides(cmd),
			})
			if err != nil {
				return fmt.Errorf(MsgErrLoadConfig, err)
			}
			config.Initialize(cfg)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf(MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", MsgFlagConfig)

	rootCmd.AddCommand(newStageCmd())
	rootCmd.AddCommand(newStrategiesCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// bindConfig makes flag override the config key when it is set.
func bindConfig(cmd *cobra.Command, flag, key string) {
	_ = cmd.Flags().SetAnnotation(flag, configKeyAnnotation, []string{key})
}

// flagOverrides collects the config keys of the changed, bound flags of cmd.
func flagOverrides(cmd *cobra.Command) map[string]interface{} {
	overrides := map[string]interface{}{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if keys := f.Annotations[configKeyAnnotation]; len(keys) == 1 {
			overrides[keys[0]] = f.Value.String()
		}
	})
	return overrides
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.String())
		},
	}
}

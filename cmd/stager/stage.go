package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/stager/pkg/config"
	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/fetch"
	"github.com/arthur-debert/stager/pkg/logging"
	"github.com/arthur-debert/stager/pkg/manifest"
	"github.com/arthur-debert/stager/pkg/staging"
	"github.com/arthur-debert/stager/pkg/style"
	"github.com/arthur-debert/stager/pkg/types"
)

func newStageCmd() *cobra.Command {
	var (
		workRoot string
		move     bool
		vars     []string
	)

	cmd := &cobra.Command{
		Use:   "stage <manifest>",
		Short: MsgStageShort,
		Long:  MsgStageLong,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cmd.stage")
			logger.Debug().Str("manifest", args[0]).Msg(MsgDebugStaging)

			variables, err := parseVars(vars)
			if err != nil {
				return err
			}

			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			res, err := m.StagingResource()
			if err != nil {
				return err
			}
			packageSpecs, err := m.PatchSpecs()
			if err != nil {
				return err
			}

			scratch, err := os.MkdirTemp("", "stager-fetch-*")
			if err != nil {
				return errors.Wrap(err, errors.ErrFileSystem, MsgErrScratchDir)
			}
			defer func() { _ = os.RemoveAll(scratch) }()

			fetcher := fetch.NewLocalFetcher(m.Dir)
			res, err = fetch.Resource(cmd.Context(), fetcher, res, scratch)
			if err != nil {
				return err
			}

			stager, err := staging.NewFromConfig(config.Get(), fetcher)
			if err != nil {
				return err
			}

			specs := make([]types.PatchSpec, 0, len(res.Patches)+len(packageSpecs))
			specs = append(specs, res.Patches...)
			specs = append(specs, packageSpecs...)

			tree, err := stager.Stage(cmd.Context(), res, specs, mergeVars(m.Variables, variables))
			if err != nil {
				if tree != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), MsgErrFailedTree, tree.Root)
				}
				return err
			}

			fmt.Fprint(cmd.ErrOrStderr(), style.RenderStaged(tree, len(specs)))
			fmt.Fprintln(cmd.OutOrStdout(), tree.SourceDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&workRoot, "work-root", "", MsgFlagWorkRoot)
	cmd.Flags().BoolVar(&move, "move", false, MsgFlagMove)
	bindConfig(cmd, "work-root", "staging.work_root")
	bindConfig(cmd, "move", "extract.move")
	cmd.Flags().StringArrayVar(&vars, "var", nil, MsgFlagVar)
	return cmd
}

// parseVars turns name=value pairs into a map. Later pairs win.
func parseVars(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, errors.Newf(errors.ErrInvalidInput, MsgErrVarFormat, pair)
		}
		out[name] = value
	}
	return out, nil
}

func mergeVars(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

package cli

import (
	"fmt"

	"github.com/dropbear/bridge/internal/config"
	"github.com/dropbear/bridge/internal/data"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate config, assets, scenes and scripts",
		Long: `Load the config, the asset table, every scene in the scenes directory
and the script registry, and report every problem found without running
the frame loop.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	out := cmd.OutOrStdout()

	var errs error
	assets, err := data.LoadAssetTable(cfg.Scenes.Assets)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("assets: %w", err))
	} else {
		fmt.Fprintf(out, "assets   %d\n", assets.Count())
	}

	names, dirErr := data.SceneNames(cfg.Scenes.Dir)
	if dirErr != nil {
		errs = multierr.Append(errs, fmt.Errorf("scenes: %w", dirErr))
	}
	initial := false
	for _, name := range names {
		scene, err := data.LoadScene(data.ScenePath(cfg.Scenes.Dir, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("scene %s: %w", name, err))
			continue
		}
		initial = initial || name == cfg.Scenes.Initial
		fmt.Fprintf(out, "scene    %s  entities=%d tags=%v\n", scene.Name, scene.EntityCount(), scene.AllTags())
	}
	if dirErr == nil && !initial {
		errs = multierr.Append(errs, fmt.Errorf("initial scene %q not found in %s", cfg.Scenes.Initial, cfg.Scenes.Dir))
	}

	registry, err := newRegistry(cfg.Scripting, zap.NewNop())
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if t, ok := registry.(interface{ Tags() []string }); ok {
		fmt.Fprintf(out, "scripts  %s registry, tags=%v\n", cfg.Scripting.Registry, t.Tags())
	}

	for _, e := range multierr.Errors(errs) {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", e)
	}
	if errs != nil {
		return fmt.Errorf("check failed: %d problem(s)", len(multierr.Errors(errs)))
	}
	fmt.Fprintln(out, "ok")
	return nil
}

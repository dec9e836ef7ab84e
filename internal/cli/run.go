package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dropbear/bridge/internal/config"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Frames     int
	Profile    bool
	ProfileDir string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the frame loop",
		Long: `Load the initial scene, bind its script tags and run the frame loop
until a script quits, the frame limit is reached or the process is
interrupted.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Frames, "frames", "n", 0, "stop after this many frames (0 runs until quit)")
	cmd.Flags().BoolVar(&opts.Profile, "profile", false, "write a CPU profile")
	cmd.Flags().StringVar(&opts.ProfileDir, "profile-dir", ".", "directory for the CPU profile")

	return cmd
}

func runSession(ctx context.Context, opts *RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if opts.Profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(opts.ProfileDir), profile.NoShutdownHook, profile.Quiet).Stop()
	}

	s, err := openSession(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.close()
	if err := s.enter(cfg.Scenes.Initial); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		err := s.loop.Run(gctx, opts.Frames)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			cancel()
		case <-gctx.Done():
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("session finished",
		zap.Uint64("frames", s.loop.Frames()),
		zap.String("scene", s.stage.Scene()),
		zap.Int("systems", s.scripts.TotalSystems()),
	)
	return nil
}

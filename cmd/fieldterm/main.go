// Command fieldterm renders the hero particle field in the terminal. Mouse
// motion repels nodes; Esc or q quits.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/Zachkp/devfolio/internal/config"
	"github.com/Zachkp/devfolio/internal/cursor"
	"github.com/Zachkp/devfolio/internal/frame"
	"github.com/Zachkp/devfolio/internal/observability"
	"github.com/Zachkp/devfolio/internal/particles"
	"github.com/Zachkp/devfolio/internal/surface/termsurface"
)

var (
	cfgFile    string
	cellWidth  float64
	cellHeight float64
)

var rootCmd = &cobra.Command{
	Use:   "fieldterm",
	Short: "Show the interactive particle background in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		// The terminal is the display, so logs only go to the configured file.
		cfg.Logger.Format = "json"
		logger := observability.Initialize(cfg.Logger, zapcore.AddSync(io.Discard))
		defer observability.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file")
	rootCmd.Flags().Float64Var(&cellWidth, "cell-width", termsurface.DefaultCellWidth, "pixels per terminal column")
	rootCmd.Flags().Float64Var(&cellHeight, "cell-height", termsurface.DefaultCellHeight, "pixels per terminal row")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initialising terminal: %w", err)
	}
	defer screen.Fini()

	term := termsurface.New(screen, cellWidth, cellHeight)
	background := term.NewLayer()
	pointer := term.NewLayer()

	sched := frame.NewScheduler()
	hub := frame.NewHub(sched)

	field := particles.NewField(particles.Config{
		Nodes:              cfg.Field.Nodes,
		ConnectionDistance: cfg.Field.ConnectionDistance,
		InteractionRadius:  cfg.Field.InteractionRadius,
		Force:              cfg.Field.Force,
	}, nil)
	renderer := particles.Mount(sched, hub, background, field, logger)
	defer renderer.Unmount()

	follower := cursor.NewFollower(cursor.NewState(), cfg.Field.RefreshHz, cfg.Cursor.FinePointer)
	follower.Mount(sched, hub, pointer, logger)
	defer follower.Unmount()

	// Present after the frame's callbacks have painted.
	var present func(time.Time)
	present = func(time.Time) {
		term.Present()
		sched.Request(present)
	}
	sched.Request(present)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return term.Pump(gctx, hub) })
	g.Go(func() error { return frame.Run(gctx, sched, cfg.Field.FrameInterval()) })

	err = g.Wait()
	if errors.Is(err, termsurface.ErrQuit) || errors.Is(err, context.Canceled) {
		logger.Info("field closed", zap.Uint64("frames", renderer.Frames()))
		return nil
	}
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Command field opens a desktop window with the hero particle field, the
// spring cursor follower and a magnetic call-to-action button.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zachkp/devfolio/internal/config"
	"github.com/Zachkp/devfolio/internal/cursor"
	"github.com/Zachkp/devfolio/internal/frame"
	"github.com/Zachkp/devfolio/internal/observability"
	"github.com/Zachkp/devfolio/internal/particles"
	"github.com/Zachkp/devfolio/internal/surface/ebitensurface"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "field",
	Short: "Show the interactive particle background in a window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger := observability.InitializeLogger(cfg.Logger)
		defer observability.Sync()
		return run(cfg, logger)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	sched := frame.NewScheduler()
	hub := frame.NewHub(sched)
	game := ebitensurface.NewGame(sched, hub, cfg.Cursor.FinePointer)

	background := game.NewLayer()
	controls := game.NewLayer()
	pointer := game.NewLayer()
	defer game.Close()
	game.Sync(cfg.Field.Width, cfg.Field.Height)

	field := particles.NewField(particles.Config{
		Nodes:              cfg.Field.Nodes,
		ConnectionDistance: cfg.Field.ConnectionDistance,
		InteractionRadius:  cfg.Field.InteractionRadius,
		Force:              cfg.Field.Force,
	}, nil)
	renderer := particles.Mount(sched, hub, background, field, logger)
	defer renderer.Unmount()

	state := cursor.NewState()
	btn := newButton(state, cursor.Rect{
		X: float64(cfg.Field.Width)/2 - 90,
		Y: float64(cfg.Field.Height)/2 - 28,
		W: 180,
		H: 56,
	}, cfg.Field.RefreshHz)
	btn.mount(sched, hub, controls)
	defer btn.unmount()

	follower := cursor.NewFollower(state, cfg.Field.RefreshHz, cfg.Cursor.FinePointer)
	follower.Mount(sched, hub, pointer, logger)
	defer follower.Unmount()

	logger.Info("opening field window",
		zap.Int("width", cfg.Field.Width),
		zap.Int("height", cfg.Field.Height),
		zap.Int("nodes", cfg.Field.Nodes),
	)
	return ebitensurface.Run(game, "devfolio", cfg.Field.Width, cfg.Field.Height)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

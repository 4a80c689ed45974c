package app

import (
	"fmt"

	"github.com/on-the-ground/effect_ive_loop/effects"
	"github.com/on-the-ground/effect_ive_loop/effects/game"
	"github.com/on-the-ground/effect_ive_loop/effects/log"
	"github.com/on-the-ground/effect_ive_loop/effects/store"
	"github.com/spf13/cobra"
)

// GameOptions holds flags for the game command.
type GameOptions struct {
	*RootOptions
	Frames   uint64
	FPS      int
	Velocity int
}

func NewGameCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GameOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "game",
		Short: "Move a body for a number of frames",
		Long: `Run a tick-driven simulation: every frame moves a body by its velocity.

Example:
  loopdemo game --frames 120 --fps 60`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGame(cmd, opts)
		},
	}

	cmd.Flags().Uint64Var(&opts.Frames, "frames", 60, "number of frames to simulate")
	cmd.Flags().IntVar(&opts.FPS, "fps", 0, "frames per second (config game.fps when 0)")
	cmd.Flags().IntVar(&opts.Velocity, "velocity", 1, "distance moved per frame")

	return cmd
}

type body struct {
	Frame    uint64
	Position int
	Velocity int
}

func bodyReducer(limit uint64) effects.Reducer[body] {
	return func(b body, action effects.Action) (effects.Loop[body], error) {
		tick, ok := action.(game.Tick)
		if !ok {
			return effects.Return(b), fmt.Errorf("unknown action %T", action)
		}
		if b.Frame >= limit {
			return effects.Return(b), nil
		}
		b.Frame++
		b.Position += b.Velocity
		if b.Frame == limit {
			return effects.Return(b, log.Message{
				Level:   log.LogDebug,
				Message: "simulation finished",
				Fields:  map[string]interface{}{"frame": tick.Frame.Number, "at": tick.Frame.At},
			}), nil
		}
		return effects.Return(b), nil
	}
}

func runGame(cmd *cobra.Command, opts *GameOptions) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	fps := opts.FPS
	if fps <= 0 {
		fps = opts.config.Game.FPS
	}

	logger := opts.logger
	reducer := bodyReducer(opts.Frames)
	if opts.Verbose {
		reducer = log.WithLogging(reducer)
	}

	g := game.Start(ctx,
		effects.Return(body{Velocity: opts.Velocity}),
		reducer,
		log.Epic(logger, log.LogDebug),
		game.NewTickerClock(fps),
		game.WithLogger(logger),
		game.WithStoreOptions(store.WithConfig(opts.config.ScopeConfig())),
	)
	defer g.Destroy()

	final, err := waitFor(ctx, g.Store, func(b body) bool { return b.Frame >= opts.Frames })
	if err != nil {
		return err
	}
	if err := g.Destroy(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "frames: %d\n", final.Frame)
	fmt.Fprintf(out, "position: %d\n", final.Position)
	return nil
}

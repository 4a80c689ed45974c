package app

import (
	"fmt"
	"strconv"
	"time"

	"github.com/on-the-ground/effect_ive_loop/effects"
	"github.com/on-the-ground/effect_ive_loop/effects/config"
	"github.com/on-the-ground/effect_ive_loop/effects/log"
	"github.com/on-the-ground/effect_ive_loop/effects/storage"
	"github.com/on-the-ground/effect_ive_loop/effects/store"
	"github.com/on-the-ground/effect_ive_loop/effects/timer"
	"github.com/on-the-ground/effect_ive_loop/effects/tracker"
	"github.com/spf13/cobra"
)

const (
	countKey   = "count"
	saveTimer  = "counter/save"
	defaultGap = 20 * time.Millisecond
)

// CounterOptions holds flags for the counter command.
type CounterOptions struct {
	*RootOptions
	Increments int
	Database   string
	Debounce   time.Duration
}

func NewCounterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CounterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Increment a persisted counter",
		Long: `Load a counter from storage, increment it and save it back.

Every increment restarts the same save timer, so the counter is written
once after the last increment.

Example:
  loopdemo counter --increments 5 --db ./counter.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCounter(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Increments, "increments", "n", 1, "number of increments to apply")
	cmd.Flags().StringVar(&opts.Database, "db", "", "bbolt file to persist the counter in (in-memory when empty)")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", defaultGap, "quiet period before the counter is saved")

	return cmd
}

type counter struct {
	Count   int
	Loaded  bool
	Pending bool
	Saved   bool
}

type (
	loaded struct {
		Value string
		OK    bool
	}
	increment struct{}
	saveDue   struct{}
	persisted struct{}
)

func counterReducer(debounce time.Duration) effects.Reducer[counter] {
	return func(c counter, action effects.Action) (effects.Loop[counter], error) {
		switch a := action.(type) {
		case loaded:
			c.Loaded = true
			if !a.OK {
				return effects.Return(c), nil
			}
			n, err := strconv.Atoi(a.Value)
			if err != nil {
				return effects.Return(c, log.Message{
					Level:   log.LogWarn,
					Message: "ignoring invalid stored count",
					Fields:  map[string]interface{}{"value": a.Value, "error": err.Error()},
				}), nil
			}
			c.Count = n
			return effects.Return(c), nil
		case increment:
			c.Count++
			c.Pending = true
			c.Saved = false
			return effects.Return(c, timer.SetTimeout{
				After:      debounce,
				OnFire:     func(time.Duration) effects.Action { return saveDue{} },
				TrackerKey: saveTimer,
			}), nil
		case saveDue:
			c.Pending = false
			return effects.Return(c,
				storage.SetItem{Key: countKey, Value: strconv.Itoa(c.Count)},
				storage.GetItem{Key: countKey, OnReturn: func(string, bool) effects.Action { return persisted{} }},
			), nil
		case persisted:
			c.Saved = !c.Pending
			return effects.Return(c), nil
		}
		return effects.Return(c), fmt.Errorf("unknown action %T", action)
	}
}

func runCounter(cmd *cobra.Command, opts *CounterOptions) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	storageCfg := opts.config.Storage
	if opts.Database != "" {
		storageCfg.Backend = config.BackendBolt
		storageCfg.Path = opts.Database
	}
	backend, err := storage.Open(storageCfg)
	if err != nil {
		return err
	}

	logger := opts.logger
	reducer := counterReducer(opts.Debounce)
	epic := effects.CombineEpics(
		timer.Epic(tracker.WithLogger(logger), tracker.WithShards(opts.config.Tracker.Shards)),
		storage.Epic(backend, logger),
	)
	epic = log.Enhance(epic, logger, log.LogDebug)
	if opts.Verbose {
		reducer = log.WithLogging(reducer)
	}

	s := store.Start(ctx,
		effects.Return(counter{}, storage.GetItem{
			Key:      countKey,
			OnReturn: func(value string, ok bool) effects.Action { return loaded{Value: value, OK: ok} },
		}),
		reducer,
		epic,
		store.WithLogger(logger),
		store.WithConfig(opts.config.ScopeConfig()),
		store.WithTeardown(backend.Close),
	)
	defer s.Destroy()

	start, err := waitFor(ctx, s, func(c counter) bool { return c.Loaded })
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "loaded count: %d\n", start.Count)

	for i := 0; i < opts.Increments; i++ {
		if err := s.Dispatch(increment{}); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "increments: %d\n", opts.Increments)

	if opts.Increments == 0 {
		return s.Destroy()
	}
	final, err := waitFor(ctx, s, func(c counter) bool { return c.Saved })
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "saved count: %d\n", final.Count)
	return s.Destroy()
}

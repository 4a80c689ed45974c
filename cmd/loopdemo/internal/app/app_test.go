package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/on-the-ground/effect_ive_loop/effects"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"counter", "game"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestCounter_Golden(t *testing.T) {
	db := filepath.Join(t.TempDir(), "counter.db")
	g := newGoldie(t)

	first := execute(t, "counter", "--increments", "3", "--debounce", "5ms", "--db", db)
	g.Assert(t, "counter_first", []byte(first))

	second := execute(t, "counter", "-n", "2", "--debounce", "5ms", "--db", db)
	g.Assert(t, "counter_second", []byte(second))
}

func TestCounter_InMemoryWithoutIncrements(t *testing.T) {
	out := execute(t, "counter", "-n", "0")
	assert.Equal(t, "loaded count: 0\nincrements: 0\n", out)
}

func TestGame_Golden(t *testing.T) {
	out := execute(t, "game", "--frames", "5", "--fps", "500", "--velocity", "3")
	newGoldie(t).Assert(t, "game", []byte(out))
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  fps: 400\nlog:\n  level: error\n"), 0o644))

	out := execute(t, "--config", path, "game", "--frames", "2")
	assert.Equal(t, "frames: 2\nposition: 2\n", out)

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "game"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestCounterReducer(t *testing.T) {
	reduce := counterReducer(time.Millisecond)

	loop, err := reduce(counter{}, loaded{Value: "x", OK: true})
	require.NoError(t, err)
	assert.Equal(t, counter{Loaded: true}, loop.State)
	require.Len(t, effects.Flatten(loop.Effect), 1, "invalid stored value is reported")

	loop, err = reduce(loop.State, increment{})
	require.NoError(t, err)
	assert.Equal(t, counter{Count: 1, Loaded: true, Pending: true}, loop.State)

	loop, err = reduce(loop.State, saveDue{})
	require.NoError(t, err)
	assert.Len(t, loop.Effects(), 2)

	loop, err = reduce(loop.State, persisted{})
	require.NoError(t, err)
	assert.True(t, loop.State.Saved)

	_, err = reduce(loop.State, "bogus")
	assert.Error(t, err)
}

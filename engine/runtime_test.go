package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-git/event"
	"github.com/lixenwraith/vi-git/input"
	"github.com/lixenwraith/vi-git/keys"
	"github.com/lixenwraith/vi-git/repo"
	"github.com/lixenwraith/vi-git/status"
	"github.com/lixenwraith/vi-git/theme"
)

func tickerConfig() Config {
	return Config{Repo: repo.At("/repo"), Updater: UpdaterTicker, Theme: theme.Default(), Keys: keys.Default()}
}

func TestFirstIterationForcesUpdate(t *testing.T) {
	h := newHarness(t)
	cfg := tickerConfig()
	h.start(cfg)
	h.tickers(cfg)
	h.nextApp()

	h.send(key('q'))
	require.NoError(t, h.wait())

	ops := h.rec.list()
	require.NotEmpty(t, ops)
	// Session start hides the cursor, then the forced update precedes any source
	assert.Equal(t, []string{"hide-cursor", "update", "draw", "flush", "input", "draw", "flush"}, ops)
}

func TestSpinnerNeverUpdatesApplication(t *testing.T) {
	h := newHarness(t)
	cfg := tickerConfig()
	h.start(cfg)
	_, spin := h.tickers(cfg)
	h.nextApp()

	h.send(key('p')) // work pending from now on
	for range 5 {
		tick(t, spin)
	}
	h.send(key('q'))
	require.NoError(t, h.wait())

	assert.Equal(t, 1, h.rec.count("update"))
	assert.Equal(t, 0, h.rec.count("async"))
	assert.Equal(t, 3, h.rec.count("draw"))

	// Blank while idle, then one glyph after 'p' and one per animation step
	cells := h.screen.spinnerCells()
	require.Len(t, cells, 7)
	assert.Equal(t, ' ', cells[0].Rune)
	for i := 2; i < len(cells); i++ {
		assert.NotEqual(t, cells[i-1].Rune, cells[i].Rune)
	}
}

func TestUnchangedGitNotificationFilteredButRedrawn(t *testing.T) {
	h := newHarness(t)
	cfg := tickerConfig()
	h.start(cfg)
	h.tickers(cfg)
	app := h.nextApp()

	app.env.Git <- event.GitFinishUnchanged
	app.env.Git <- event.GitStatus
	app.env.App <- event.AppSyntaxHighlightDone

	// Buffered notifications are consumed in any order
	require.Eventually(t, func() bool { return h.rec.count("async") == 2 }, testTimeout, testPoll)
	require.Eventually(t, func() bool { return h.rec.count("draw") == 4 }, testTimeout, testPoll)

	h.send(key('q'))
	require.NoError(t, h.wait())
	assert.Equal(t, 2, h.rec.count("async"))
	assert.Equal(t, 5, h.rec.count("draw"))
}

func TestPollingResumedHidesCursorBeforeInput(t *testing.T) {
	h := newHarness(t)
	cfg := tickerConfig()
	h.start(cfg)
	h.tickers(cfg)
	h.nextApp()

	h.send(input.Event{Kind: input.KindState, State: input.StatePaused})
	h.send(input.Event{Kind: input.KindState, State: input.StatePolling})
	h.send(key('q'))
	require.NoError(t, h.wait())

	ops := h.rec.list()
	assert.Equal(t, 2, h.rec.count("hide-cursor"))
	idx := indexOf(ops, "hide-cursor", 1)
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "input", ops[idx+1])
}

func TestTickWindowUpdatesOnce(t *testing.T) {
	h := newHarness(t)
	cfg := tickerConfig()
	h.start(cfg)
	change, _ := h.tickers(cfg)
	h.nextApp()

	for range 3 {
		tick(t, change)
	}
	h.send(key('q'))
	require.NoError(t, h.wait())

	assert.Equal(t, 4, h.rec.count("update"))
	assert.Equal(t, TickInterval, change.d)
}

func TestTickerModeHasNoWatcher(t *testing.T) {
	h := newHarness(t)
	watchers := 0
	h.rt.NewWatcher = func(repo.Path) (Watcher, error) {
		watchers++
		return &fakeWatcher{ch: make(chan struct{})}, nil
	}
	cfg := tickerConfig()
	h.start(cfg)
	change, spin := h.tickers(cfg)
	h.nextApp()
	h.send(key('q'))
	require.NoError(t, h.wait())

	assert.Zero(t, watchers)
	assert.Len(t, h.clock.all(), 2)
	assert.Equal(t, SpinnerInterval, spin.d)
	assert.True(t, change.isStopped())
	assert.True(t, spin.isStopped())
}

func TestWatcherModeHasNoTicker(t *testing.T) {
	h := newHarness(t)
	w := &fakeWatcher{ch: make(chan struct{})}
	h.rt.NewWatcher = func(repo.Path) (Watcher, error) { return w, nil }

	cfg := tickerConfig()
	cfg.Updater = UpdaterWatcher
	h.start(cfg)
	_, spin := h.tickers(cfg)
	h.nextApp()

	w.ch <- struct{}{}
	h.send(key('q'))
	require.NoError(t, h.wait())

	assert.Len(t, h.clock.all(), 1)
	assert.Equal(t, SpinnerInterval, spin.d)
	assert.Equal(t, 2, h.rec.count("update"))
	assert.True(t, w.isClosed())
}

func TestRestartCarriesThemeAndKeys(t *testing.T) {
	h := newHarness(t)
	cfg := tickerConfig()
	cfg.Keys.Keys.Quit = keys.Rune('z')
	h.start(cfg)

	first := h.nextApp()
	oldChange, oldSpin := h.tickers(cfg)
	h.send(key('o'))

	second := h.nextApp()
	h.tickers(cfg)
	h.send(key('q'))
	require.NoError(t, h.wait())

	assert.NotSame(t, first, second)
	assert.Equal(t, repo.At("/repo"), first.env.Repo)
	assert.Equal(t, repo.At("/sub"), second.env.Repo)
	assert.Equal(t, first.env.Theme, second.env.Theme)
	assert.Equal(t, first.env.Keys, second.env.Keys)
	assert.Equal(t, keys.Rune('z'), second.env.Keys.Keys.Quit)
	assert.NotEqual(t, first.env.Git, second.env.Git)
	assert.True(t, oldChange.isStopped())
	assert.True(t, oldSpin.isStopped())

	assert.Equal(t, []string{"vi-git (/repo)", "vi-git (/sub)"}, h.screen.titles)
	assert.Equal(t, 2, h.rec.count("update"))
}

func TestHandlerErrorAbortsSession(t *testing.T) {
	h := newHarness(t)
	cfg := tickerConfig()
	h.start(cfg)
	h.tickers(cfg)
	h.nextApp()

	h.send(key('x'))
	err := h.wait()
	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "input")
}

func TestUpdateErrorAbortsSession(t *testing.T) {
	h := newHarness(t)
	h.configure = func(a *fakeApp) { a.updateErr = errBoom }
	cfg := tickerConfig()
	h.start(cfg)
	h.tickers(cfg)
	h.nextApp()

	assert.ErrorIs(t, h.wait(), errBoom)
}

func TestDrawErrorIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.configure = func(a *fakeApp) { a.drawErr = errBoom }
	cfg := tickerConfig()
	h.start(cfg)
	h.tickers(cfg)
	h.nextApp()

	h.send(key('q'))
	assert.NoError(t, h.wait())
	assert.Equal(t, 2, h.rec.count("flush"))
}

func TestRequiresRedrawClears(t *testing.T) {
	h := newHarness(t)
	cfg := tickerConfig()
	h.start(cfg)
	h.tickers(cfg)
	h.nextApp()

	h.send(key('r'))
	h.send(key('q'))
	require.NoError(t, h.wait())

	ops := h.rec.list()
	assert.Equal(t, 1, h.rec.count("clear"))
	idx := indexOf(ops, "clear", 0)
	assert.Equal(t, "draw", ops[idx+1])
	// Spinner repainted after the clear
	assert.Len(t, h.screen.spinnerCells(), 2)
}

func TestClosedInputEndsWithError(t *testing.T) {
	h := newHarness(t)
	cfg := tickerConfig()
	h.start(cfg)
	h.tickers(cfg)
	h.nextApp()

	close(h.input.ch)
	assert.ErrorIs(t, h.wait(), event.ErrSourceClosed)
}

func TestRunValidatesCollaborators(t *testing.T) {
	rt := &Runtime{}
	assert.Error(t, rt.Run(tickerConfig()))

	h := newHarness(t)
	cfg := tickerConfig()
	cfg.Updater = UpdaterWatcher
	assert.Error(t, h.rt.Run(cfg))
}

func TestMetricsRecorded(t *testing.T) {
	h := newHarness(t)
	cfg := tickerConfig()
	cfg.Metrics = status.NewRegistry()
	h.start(cfg)
	change, spin := h.tickers(cfg)
	app := h.nextApp()

	tick(t, change)
	tick(t, spin)
	app.env.Git <- event.GitFinishUnchanged
	require.Eventually(t, func() bool {
		return cfg.Metrics.Counters.Get("events.filtered_unchanged").Load() == 1
	}, testTimeout, testPoll)
	h.send(key('q'))
	require.NoError(t, h.wait())

	c := cfg.Metrics.Counters
	assert.Equal(t, int64(1), c.Get("sessions").Load())
	assert.Equal(t, int64(1), c.Get("events.notify").Load())
	assert.Equal(t, int64(1), c.Get("events.tick").Load())
	assert.Equal(t, int64(1), c.Get("events.spinner").Load())
	assert.Equal(t, int64(1), c.Get("events.async").Load())
	assert.Equal(t, int64(1), c.Get("events.input").Load())
	assert.Equal(t, "/repo", cfg.Metrics.Labels.Get("repo").Get())
}

func TestQuitStateString(t *testing.T) {
	assert.Equal(t, "close", QuitState{Kind: QuitClose}.String())
	assert.Equal(t, "open submodule /x", QuitState{Kind: QuitOpenSubmodule, Path: repo.At("/x")}.String())
}

func indexOf(ops []string, op string, nth int) int {
	for i, o := range ops {
		if o == op {
			if nth == 0 {
				return i
			}
			nth--
		}
	}
	return -1
}

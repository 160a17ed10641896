package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MSLNZ/msl-equipment-sub004/internal/watch"
)

func waitRun(t *testing.T, runs <-chan struct{}) {
	t.Helper()
	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a run")
	}
}

func TestWatcher_RerunsOnChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))

	w, err := watch.New(watch.Options{Paths: []string{dir}, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	defer w.Close()

	runs := make(chan struct{}, 8)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- w.Run(ctx, func(context.Context) { runs <- struct{}{} })
	}()

	waitRun(t, runs)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "a.xml"), []byte("<x/>"), 0o644))
	waitRun(t, runs)

	cancel()
	select {
	case err := <-errc:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := watch.New(watch.Options{Paths: []string{dir}, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	defer w.Close()

	runs := make(chan struct{}, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx, func(context.Context) { runs <- struct{}{} }) }()
	waitRun(t, runs)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.xml"), []byte("x"), 0o644))
	select {
	case <-runs:
		t.Fatal("unexpected run")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_CancelsInFlightRun(t *testing.T) {
	dir := t.TempDir()
	w, err := watch.New(watch.Options{Paths: []string{dir}, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	defer w.Close()

	cancelled := make(chan struct{}, 1)
	started := make(chan struct{}, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := true
	go func() {
		_ = w.Run(ctx, func(c context.Context) {
			started <- struct{}{}
			if first {
				first = false
				<-c.Done()
				cancelled <- struct{}{}
			}
		})
	}()
	waitRun(t, started)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.xml"), []byte("<x/>"), 0o644))
	waitRun(t, cancelled)
	waitRun(t, started)
}

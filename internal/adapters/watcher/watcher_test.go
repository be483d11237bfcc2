package watcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
	fail  string
}

func (r *recorder) ingest(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.paths = append(r.paths, filepath.Base(path))
	if filepath.Base(path) == r.fail {
		return errors.New("parse failed")
	}

	return nil
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.paths)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startWatcher(t *testing.T, dir string, rec *recorder) *Watcher {
	t.Helper()

	w, err := New(Options{Dir: dir, Settle: 20 * time.Millisecond}, rec.ingest, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	require.Eventually(t, func() bool { return w.Check(ctx) == nil }, 2*time.Second, 10*time.Millisecond)

	return w
}

func TestNew_Validation(t *testing.T) {
	rec := &recorder{}

	_, err := New(Options{}, rec.ingest, nil)
	assert.Error(t, err)

	_, err = New(Options{Dir: "x"}, nil, nil)
	assert.Error(t, err)

	_, err = New(Options{Dir: "x", Pattern: "[unclosed"}, rec.ingest, nil)
	assert.Error(t, err)

	w, err := New(Options{Dir: "x"}, rec.ingest, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPattern, w.opts.Pattern)
	assert.Equal(t, DefaultSettle, w.opts.Settle)
}

func TestWatcher_Matches(t *testing.T) {
	w, err := New(Options{Dir: "/inbox"}, (&recorder{}).ingest, nil)
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"/inbox/a.csv", true},
		{"/inbox/nested/deep/b.json", true},
		{"/inbox/c.xlsx", true},
		{"/inbox/d.xls", true},
		{"/inbox/notes.txt", false},
		{"/elsewhere/a.csv", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Matches(tt.path))
		})
	}
}

func TestWatcher_IngestsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.csv"), []byte("a\n1\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("x"), 0o600))

	rec := &recorder{}
	startWatcher(t, dir, rec)

	require.Eventually(t, func() bool { return slices.Contains(rec.seen(), "old.csv") }, 2*time.Second, 10*time.Millisecond)
	assert.NotContains(t, rec.seen(), "skip.txt")
}

func TestWatcher_IngestsNewFiles(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{fail: "bad.csv"}
	startWatcher(t, dir, rec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.csv"), []byte("a\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.json"), []byte(`[{"a":1}]`), 0o600))

	require.Eventually(t, func() bool {
		got := rec.seen()
		return slices.Contains(got, "new.json") && slices.Contains(got, "bad.csv")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	startWatcher(t, dir, rec)

	sub := filepath.Join(dir, "2024", "q1")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "sales.csv"), []byte("a\n1\n"), 0o600))

	require.Eventually(t, func() bool { return slices.Contains(rec.seen(), "sales.csv") }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_OncePerModTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o600))

	var calls atomic.Int32

	w, err := New(Options{Dir: dir}, func(context.Context, string) error {
		calls.Add(1)
		return nil
	}, quietLogger())
	require.NoError(t, err)

	ctx := context.Background()
	w.process(ctx, path)
	w.process(ctx, path)
	assert.Equal(t, int32(1), calls.Load())

	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	w.process(ctx, path)
	assert.Equal(t, int32(2), calls.Load())
}

func TestWatcher_CheckWhenStopped(t *testing.T) {
	w, err := New(Options{Dir: t.TempDir()}, (&recorder{}).ingest, nil)
	require.NoError(t, err)

	assert.Equal(t, "inbox-watcher", w.Name())
	assert.Error(t, w.Check(context.Background()))
}

func TestDebouncer_CoalescesCalls(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)

	var calls atomic.Int32
	for range 5 {
		d.add("k", func() { calls.Add(1) })
	}

	d.add("other", func() { calls.Add(10) })

	require.Eventually(t, func() bool { return calls.Load() == 11 }, time.Second, 5*time.Millisecond)
	d.stopAndWait()
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	d := newDebouncer(time.Hour)

	var calls atomic.Int32
	d.add("k", func() { calls.Add(1) })
	d.stopAndWait()
	d.add("k", func() { calls.Add(1) })

	assert.Equal(t, int32(0), calls.Load())
}

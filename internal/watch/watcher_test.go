package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/mgapi/internal/batch"
	"github.com/msageha/mgapi/internal/model"
	"github.com/msageha/mgapi/internal/resultfile"
	"github.com/msageha/mgapi/internal/spec"
)

func TestEligible(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/in/users.csv", true},
		{"/in/USERS.CSV", true},
		{"/in/users.result.csv", false},
		{"/in/users.result.csv.backup.20260823_120000", false},
		{"/in/users.result.csv.lock", false},
		{"/in/.mgapi.watch.lock", false},
		{"/in/.mgapi-tmp-123.csv", false},
		{"/in/notes.txt", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Eligible(tc.path), "path %s", tc.path)
	}
}

func TestTakeDue_DebounceWindow(t *testing.T) {
	w := New(t.TempDir(), "user_spec", nil, batch.Options{},
		model.WatchConfig{DebounceMs: 500}, nil, batch.LogLevelError)

	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	w.enqueue("/in/b.csv", base)
	w.enqueue("/in/a.csv", base)
	w.enqueue("/in/late.csv", base.Add(400*time.Millisecond))

	// Before the window elapses nothing is due.
	assert.Empty(t, w.takeDue(base.Add(300*time.Millisecond)))

	// Settled files come out sorted; the late one stays pending.
	due := w.takeDue(base.Add(600*time.Millisecond))
	assert.Equal(t, []string{"/in/a.csv", "/in/b.csv"}, due)

	due = w.takeDue(base.Add(time.Second))
	assert.Equal(t, []string{"/in/late.csv"}, due)

	// Taken paths are gone.
	assert.Empty(t, w.takeDue(base.Add(time.Hour)))
}

func TestTakeDue_ReWriteResetsWindow(t *testing.T) {
	w := New(t.TempDir(), "user_spec", nil, batch.Options{},
		model.WatchConfig{DebounceMs: 500}, nil, batch.LogLevelError)

	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	w.enqueue("/in/a.csv", base)
	w.enqueue("/in/a.csv", base.Add(400*time.Millisecond)) // still being written

	assert.Empty(t, w.takeDue(base.Add(500*time.Millisecond)))
	assert.Equal(t, []string{"/in/a.csv"}, w.takeDue(base.Add(time.Second)))
}

func TestScanOnce_SkipsCompletedFiles(t *testing.T) {
	dir := t.TempDir()
	fresh := filepath.Join(dir, "fresh.csv")
	done := filepath.Join(dir, "done.csv")
	require.NoError(t, os.WriteFile(fresh, []byte("username\nalice\n"), 0644))
	require.NoError(t, os.WriteFile(done, []byte("username\nbob\n"), 0644))
	require.NoError(t, os.WriteFile(resultfile.ResultPath(done), []byte("username,exit_code\nbob,0\n"), 0644))

	w := New(dir, "user_spec", nil, batch.Options{},
		model.WatchConfig{}, nil, batch.LogLevelError)
	w.scanOnce()

	due := w.takeDue(time.Now().Add(time.Hour))
	assert.Equal(t, []string{fresh}, due)
}

func TestRun_ProcessesDroppedFile(t *testing.T) {
	dir := t.TempDir()

	submit := func(ctx context.Context, command string) (*model.Response, error) {
		return &model.Response{ExitCode: 0, Message: "ok"}, nil
	}
	coord := batch.New(spec.Default(), submit, nil, batch.LogLevelError)
	w := New(dir, "user_spec", coord, batch.Options{ContinueOnError: true},
		model.WatchConfig{DebounceMs: 50, ScanIntervalSec: 3600}, nil, batch.LogLevelError)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	input := filepath.Join(dir, "users.csv")
	require.NoError(t, os.WriteFile(input,
		[]byte("username,email,role,action\nalice,a@example.com,admin,create\n"), 0644))

	resultPath := resultfile.ResultPath(input)
	require.Eventually(t, func() bool {
		_, err := os.Stat(resultPath)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond, "result file never appeared")

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestRun_SecondWatcherRejected(t *testing.T) {
	dir := t.TempDir()
	coord := batch.New(spec.Default(), func(ctx context.Context, command string) (*model.Response, error) {
		return &model.Response{}, nil
	}, nil, batch.LogLevelError)

	w1 := New(dir, "user_spec", coord, batch.Options{}, model.WatchConfig{ScanIntervalSec: 3600}, nil, batch.LogLevelError)
	w2 := New(dir, "user_spec", coord, batch.Options{}, model.WatchConfig{ScanIntervalSec: 3600}, nil, batch.LogLevelError)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w1.Run(ctx) }()

	lockPath := filepath.Join(dir, lockFileName)
	require.Eventually(t, func() bool {
		_, err := os.Stat(lockPath)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	err := w2.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch lock")

	cancel()
	<-errc
}

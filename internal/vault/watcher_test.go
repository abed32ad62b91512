package vault

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// watcherTestEnv sets up a bound index over a temp vault for watcher tests.
func watcherTestEnv(t *testing.T) (*Index, string) {
	t.Helper()
	vaultDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ix := New(logger, nil)
	if err := ix.Bind(context.Background(), vaultDir); err != nil {
		t.Fatal(err)
	}
	return ix, vaultDir
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	ix, vaultDir := watcherTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, ix, logger, func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(vaultDir, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return ix.Get("new.md") != nil
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:new.md" {
				return true
			}
		}
		return false
	}, "expected created:new.md callback")
}

func TestWatcher_UpdateRefreshesIndex(t *testing.T) {
	ix, vaultDir := watcherTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_ = os.WriteFile(filepath.Join(vaultDir, "a.md"), []byte("# Before"), 0o644)
	if err := ix.Rescan(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, ix, logger, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(vaultDir, "a.md"), []byte("# After"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		n := ix.Get("a.md")
		return n != nil && n.Title == "After"
	}, "updated file not reindexed by watcher")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	ix, vaultDir := watcherTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, ix, logger, nil)

	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(vaultDir, "subdir")
	_ = os.MkdirAll(subDir, 0o755)

	time.Sleep(200 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return ix.Get(filepath.Join("subdir", "deep.md")) != nil
	}, "file in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	ix, vaultDir := watcherTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_ = os.WriteFile(filepath.Join(vaultDir, "del.md"), []byte("# Delete Me"), 0o644)
	if err := ix.Rescan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if ix.Get("del.md") == nil {
		t.Fatal("precondition: file should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, ix, logger, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(vaultDir, "del.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return ix.Get("del.md") == nil
	}, "deleted file still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	ix, vaultDir := watcherTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_ = os.WriteFile(filepath.Join(vaultDir, "old.md"), []byte("# Rename"), 0o644)
	if err := ix.Rescan(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, ix, logger, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(vaultDir, "old.md"), filepath.Join(vaultDir, "renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return ix.Get("old.md") == nil && ix.Get("renamed.md") != nil
	}, "rename reconciliation failed: old path should be removed and new path indexed")
}

func TestWatcher_SkipsHiddenDirs(t *testing.T) {
	ix, vaultDir := watcherTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, ix, logger, nil)
	time.Sleep(100 * time.Millisecond)

	hidden := filepath.Join(vaultDir, ".obsidian")
	_ = os.MkdirAll(hidden, 0o755)
	_ = os.WriteFile(filepath.Join(hidden, "cache.md"), []byte("# Cache"), 0o644)
	_ = os.WriteFile(filepath.Join(vaultDir, "visible.md"), []byte("# Visible"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return ix.Get("visible.md") != nil
	}, "visible file not indexed")

	if ix.Get(filepath.Join(".obsidian", "cache.md")) != nil {
		t.Error("hidden dir file should not be indexed")
	}
}

func TestSkippedPath(t *testing.T) {
	root := "/vault"
	cases := map[string]bool{
		"/vault/notes/a.md":        false,
		"/vault/.git/config":       true,
		"/vault/node_modules/x.md": true,
		"/vault/sub/.hidden/a.md":  true,
		"/elsewhere/a.md":          true,
	}
	for p, want := range cases {
		if got := skippedPath(root, p); got != want {
			t.Errorf("skippedPath(%q) = %v, want %v", p, got, want)
		}
	}
}

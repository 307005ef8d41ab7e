package utils

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type productID int64

func TestJoinInts(t *testing.T) {
	if got := JoinInts([]productID{3, 1, 20}); got != "3,1,20" {
		t.Fatalf("JoinInts = %q", got)
	}
	if got := JoinInts[productID](nil); got != "" {
		t.Fatalf("JoinInts(nil) = %q", got)
	}
}

func TestSetLogLevel(t *testing.T) {
	defer SetLogLevel("info")
	SetLogLevel("WARN")
	if Log.GetLevel() != logrus.WarnLevel {
		t.Fatalf("level = %s", Log.GetLevel())
	}
}

func TestSetLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogofree.log")
	SetLogFile(path, 1, 1)
	defer SetLogFile("", 0, 0)

	Log.Info("hello file")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Fatalf("log file missing entry: %q", data)
	}
}

func TestDBLockWithLock(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "settings.sqlite")
	l, err := NewDBLock(dbPath)
	if err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	if err := l.WithLock(context.Background(), func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("WithLock error = %v", err)
	}
	if _, err := os.Stat(dbPath + lockFileSuffix); err != nil {
		t.Fatalf("lock file not created: %v", err)
	}

	// Released after WithLock, so a second lock succeeds immediately.
	other, _ := NewDBLock(dbPath)
	locked, err := other.lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("TryLock = %v, %v", locked, err)
	}
	other.Unlock()
}

func TestDBLockHonoursContext(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "settings.sqlite")
	holder, _ := NewDBLock(dbPath)
	if err := holder.Lock(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer holder.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	waiter, _ := NewDBLock(dbPath)
	ran := false
	err := waiter.WithLock(ctx, func() error { ran = true; return nil })
	if err == nil || ran {
		t.Fatalf("WithLock under a held lock: err=%v ran=%v", err, ran)
	}
}

func TestResolveDBPath(t *testing.T) {
	dir := t.TempDir()
	p, err := ResolveDBPath(filepath.Join(dir, "a", "b", "rel.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(p) {
		t.Fatalf("not absolute: %s", p)
	}
	if fi, err := os.Stat(filepath.Dir(p)); err != nil || !fi.IsDir() {
		t.Fatalf("parent dir not created: %v", err)
	}
}

package keys_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/keys"
	"github.com/ggoodman/request-auth-go/keys/keystest"
)

func writeKeyFile(t *testing.T, dir, contents string) string {
	t.Helper()
	p := filepath.Join(dir, "clients.htpasswd")
	if err := os.WriteFile(p, []byte(contents), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	return p
}

func TestFileRepository(t *testing.T) {
	keystest.RunRepositoryTests(t, func(t *testing.T, entries map[string]string) keys.Repository {
		var b strings.Builder
		b.WriteString("# generated\n\n")
		for id, key := range entries {
			b.WriteString("  " + id + ":" + key + "  \n")
		}
		return keys.NewFile(writeKeyFile(t, t.TempDir(), b.String()))
	})
}

func TestFileParse(t *testing.T) {
	ctx := context.Background()
	p := writeKeyFile(t, t.TempDir(), "C1:first\n#C2:commented\nC3:a:b:c\nC1:second\n")
	f := keys.NewFile(p)
	if err := f.ForceRead(); err != nil {
		t.Fatalf("ForceRead failed: %v", err)
	}
	if key, _ := f.Get(ctx, "C1"); key != "second" {
		t.Fatalf("duplicate id should keep the last key, got %q", key)
	}
	if ok, _ := f.Exists(ctx, "C2"); ok {
		t.Fatalf("commented entry should be ignored")
	}
	if ok, _ := f.Exists(ctx, "#C2"); ok {
		t.Fatalf("commented entry should be ignored")
	}
	if key, _ := f.Get(ctx, "C3"); key != "a:b:c" {
		t.Fatalf("key should keep colons, got %q", key)
	}
}

func TestFileMalformed(t *testing.T) {
	for name, contents := range map[string]string{
		"NoColon":  "C1:ok\nmalformed\n",
		"EmptyID":  ":key\n",
		"EmptyKey": "C1:\n",
	} {
		t.Run(name, func(t *testing.T) {
			f := keys.NewFile(writeKeyFile(t, t.TempDir(), contents))
			err := f.ForceRead()
			if !errors.Is(err, autherr.ErrRepositorySource) {
				t.Fatalf("ForceRead err = %v, want ErrRepositorySource", err)
			}
			if !strings.Contains(err.Error(), "line") {
				t.Fatalf("error should name the line: %v", err)
			}
		})
	}
}

func TestFileUnreadable(t *testing.T) {
	dir := t.TempDir()
	if err := keys.NewFile(filepath.Join(dir, "missing")).ForceRead(); !errors.Is(err, autherr.ErrRepositorySource) {
		t.Fatalf("missing file err = %v", err)
	}
	if err := keys.NewFile(dir).ForceRead(); !errors.Is(err, autherr.ErrRepositorySource) {
		t.Fatalf("directory err = %v", err)
	}
	if _, err := keys.NewFile(dir).Get(context.Background(), "C1"); !errors.Is(err, autherr.ErrRepositorySource) {
		t.Fatalf("lazy read of directory err = %v", err)
	}
}

func TestFileLazyRead(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "later.htpasswd")
	f := keys.NewFile(p)
	if err := os.WriteFile(p, []byte("C1:k\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if key, err := f.Get(context.Background(), "C1"); err != nil || key != "k" {
		t.Fatalf("lazy Get = %q, %v", key, err)
	}
}

func TestFileWatchReloads(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dir := t.TempDir()
	p := writeKeyFile(t, dir, "C1:old\n")
	f := keys.NewFile(p)
	if err := f.ForceRead(); err != nil {
		t.Fatalf("ForceRead failed: %v", err)
	}

	watchCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- f.Watch(watchCtx) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(p, []byte("C1:new\nC2:added\n"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		key, _ := f.Get(ctx, "C1")
		if key == "new" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("watch did not reload key file, C1 = %q", key)
		}
		time.Sleep(20 * time.Millisecond)
	}

	stop()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
}

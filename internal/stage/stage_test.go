package stage

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStage(t *testing.T) *LocalStage {
	t.Helper()
	root := t.TempDir()
	return NewLocalStage("DOCS", filepath.Join(root, "stage"), filepath.Join(root, "spool"))
}

func TestPutAndGet(t *testing.T) {
	s := newTestStage(t)
	url, err := s.Put("report one.txt", []byte("payload"), true)
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if url != "@DOCS/report_one.txt" {
		t.Fatalf("unexpected url: %s", url)
	}
	data, err := s.Get("report one.txt")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected payload: %q", data)
	}
}

func TestPutRemovesSpoolCopy(t *testing.T) {
	root := t.TempDir()
	spool := filepath.Join(root, "spool")
	s := NewLocalStage("DOCS", filepath.Join(root, "stage"), spool)
	if _, err := s.Put("a.txt", []byte("x"), true); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(spool, "a.txt")); !os.IsNotExist(err) {
		t.Fatal("spool copy was not removed")
	}
}

func TestPutWithoutOverwriteRejectsExisting(t *testing.T) {
	s := newTestStage(t)
	if _, err := s.Put("a.txt", []byte("one"), true); err != nil {
		t.Fatalf("first put failed: %v", err)
	}
	if _, err := s.Put("a.txt", []byte("two"), false); err == nil {
		t.Fatal("expected error for existing object without overwrite")
	}
	if _, err := s.Put("a.txt", []byte("two"), true); err != nil {
		t.Fatalf("overwrite put failed: %v", err)
	}
	data, err := s.Get("a.txt")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(data) != "two" {
		t.Fatalf("overwrite did not replace content: %q", data)
	}
}

func TestSafeNameStripsPath(t *testing.T) {
	if got := SafeName("../../etc/pass wd"); got != "pass_wd" {
		t.Fatalf("unexpected safe name: %q", got)
	}
}

package supervisor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRecordRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "svc.pid")
	if err := writeRecord(path, 4242); err != nil {
		t.Fatalf("writeRecord: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	if string(b) != "4242" {
		t.Fatalf("pid file content %q, want bare decimal pid", b)
	}
	pid, exists, err := readRecord(path)
	if err != nil || !exists || pid != 4242 {
		t.Fatalf("readRecord = (%d, %v, %v)", pid, exists, err)
	}
}

func TestReadRecordMissing(t *testing.T) {
	pid, exists, err := readRecord(filepath.Join(t.TempDir(), "absent.pid"))
	if err != nil || exists || pid != 0 {
		t.Fatalf("readRecord(absent) = (%d, %v, %v), want (0, false, nil)", pid, exists, err)
	}
}

func TestReadRecordTolerantOfTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.pid")
	if err := os.WriteFile(path, []byte("123\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	pid, exists, err := readRecord(path)
	if err != nil || !exists || pid != 123 {
		t.Fatalf("readRecord = (%d, %v, %v)", pid, exists, err)
	}
}

func TestReadRecordGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.pid")
	for _, content := range []string{"", "abc", "-5", "0"} {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		_, exists, err := readRecord(path)
		if !exists || err == nil {
			t.Fatalf("readRecord(%q) = (exists=%v, err=%v), want stale record error", content, exists, err)
		}
	}
}

func TestRemoveRecordIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.pid")
	if err := writeRecord(path, 1); err != nil {
		t.Fatal(err)
	}
	if err := removeRecord(path); err != nil {
		t.Fatalf("removeRecord: %v", err)
	}
	if err := removeRecord(path); err != nil {
		t.Fatalf("second removeRecord: %v", err)
	}
}

package identity

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credential.json")
	want := Credential{Token: "tok-123", Subject: "tenant-017"}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Fatalf("round trip = %+v, want %+v", got, want)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Fatalf("credential permissions %o, want 600", perm)
		}
		dirInfo, _ := os.Stat(filepath.Dir(path))
		if perm := dirInfo.Mode().Perm(); perm != 0o700 {
			t.Fatalf("credential dir permissions %o, want 700", perm)
		}
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credential.json")
	if err := Save(path, Credential{Token: "tok"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind after Save")
	}
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.json")
	if err := Save(path, Credential{Token: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := Save(path, Credential{Token: "new", Subject: "s"}); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil || got.Token != "new" {
		t.Fatalf("Load after overwrite = (%+v, %v)", got, err)
	}
}

func TestLoadRejectsTokenless(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.json")
	if err := os.WriteFile(path, []byte(`{"subject":"only"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted a credential without token")
	}
}

func TestStaticIntrospector(t *testing.T) {
	s, err := Static("tenant-a").Subject(context.Background())
	if err != nil || s != "tenant-a" {
		t.Fatalf("Static.Subject = (%q, %v)", s, err)
	}
	if _, err := Static("").Subject(context.Background()); err == nil {
		t.Fatal("empty Static should fail")
	}
}

func TestFromCredentialIntrospector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.json")
	if err := Save(path, Credential{Token: "tok", Subject: "tenant-b"}); err != nil {
		t.Fatal(err)
	}
	s, err := FromCredential(path).Subject(context.Background())
	if err != nil || s != "tenant-b" {
		t.Fatalf("FromCredential.Subject = (%q, %v)", s, err)
	}

	// A refreshed file is visible on the next call.
	if err := Save(path, Credential{Token: "tok", Subject: "tenant-c"}); err != nil {
		t.Fatal(err)
	}
	s, _ = FromCredential(path).Subject(context.Background())
	if s != "tenant-c" {
		t.Fatalf("refreshed subject = %q, want tenant-c", s)
	}
}

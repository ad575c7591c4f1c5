package install

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/loykin/edgeup/internal/registry"
)

func testRegistry(t *testing.T, l Layout) *registry.Registry {
	t.Helper()
	mk := func(name string, order int) registry.Service {
		return registry.Service{
			Name:        name,
			BinaryPath:  filepath.Join(l.BinDir, name),
			ConfigPath:  filepath.Join(l.ConfigDir, name+".yaml"),
			LogPath:     filepath.Join(l.LogsDir, name+".log"),
			PIDFilePath: filepath.Join(l.DataDir, name+".pid"),
			StartOrder:  order,
		}
	}
	reg, err := registry.New([]registry.Service{
		mk("gateway", 0), mk("edge-api", 1), mk("batch-runner", 2),
	})
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	return reg
}

func TestEnsureLayoutIdempotent(t *testing.T) {
	l := DefaultLayout(filepath.Join(t.TempDir(), "edge"))
	m := NewManager(l, nil)
	if l.Exists() {
		t.Fatal("layout exists before EnsureLayout")
	}
	if err := m.EnsureLayout(); err != nil {
		t.Fatalf("EnsureLayout: %v", err)
	}
	if !l.Exists() {
		t.Fatal("layout missing after EnsureLayout")
	}
	// Second call is a no-op, not an error.
	if err := m.EnsureLayout(); err != nil {
		t.Fatalf("second EnsureLayout: %v", err)
	}
}

func TestEnsureCertificateOnlyIfAbsent(t *testing.T) {
	l := DefaultLayout(t.TempDir())
	m := NewManager(l, nil)
	if err := m.EnsureLayout(); err != nil {
		t.Fatal(err)
	}
	if err := m.EnsureCertificate("edge.example.org", CertOptions{}); err != nil {
		t.Fatalf("EnsureCertificate: %v", err)
	}
	before, err := os.ReadFile(l.CertPath())
	if err != nil {
		t.Fatalf("read cert: %v", err)
	}

	if err := m.EnsureCertificate("edge.example.org", CertOptions{}); err != nil {
		t.Fatalf("second EnsureCertificate: %v", err)
	}
	after, _ := os.ReadFile(l.CertPath())
	if string(before) != string(after) {
		t.Fatal("existing certificate was replaced without Regenerate")
	}

	if err := m.EnsureCertificate("edge.example.org", CertOptions{Regenerate: true}); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	regen, _ := os.ReadFile(l.CertPath())
	if string(before) == string(regen) {
		t.Fatal("Regenerate did not produce a fresh certificate")
	}
}

func TestRenderConfigOverwritesAlways(t *testing.T) {
	l := DefaultLayout(t.TempDir())
	m := NewManager(l, nil)
	if err := m.EnsureLayout(); err != nil {
		t.Fatal(err)
	}
	reg := testRegistry(t, l)
	svc, _ := reg.Lookup("gateway")

	if err := m.RenderConfig(svc, Params{Port: 50017, Address: "edge.example.org"}); err != nil {
		t.Fatalf("RenderConfig: %v", err)
	}
	first, err := os.ReadFile(svc.ConfigPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(first), "50017") {
		t.Fatalf("rendered config missing port:\n%s", first)
	}

	if err := m.RenderConfig(svc, Params{Port: 50999, Address: "edge.example.org"}); err != nil {
		t.Fatalf("re-render: %v", err)
	}
	second, _ := os.ReadFile(svc.ConfigPath)
	if !strings.Contains(string(second), "50999") || strings.Contains(string(second), "50017") {
		t.Fatalf("re-render did not overwrite:\n%s", second)
	}
}

func TestRenderedGatewayConfigShape(t *testing.T) {
	l := DefaultLayout(t.TempDir())
	m := NewManager(l, nil)
	if err := m.EnsureLayout(); err != nil {
		t.Fatal(err)
	}
	reg := testRegistry(t, l)
	svc, _ := reg.Lookup("gateway")
	if err := m.RenderConfig(svc, Params{Port: 50017, Address: "203.0.113.5", Subject: "tenant-017"}); err != nil {
		t.Fatalf("RenderConfig: %v", err)
	}

	b, _ := os.ReadFile(svc.ConfigPath)
	var doc map[string]any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		t.Fatalf("rendered config is not valid YAML: %v", err)
	}
	if doc["Port"] != 50017 {
		t.Fatalf("Port = %v", doc["Port"])
	}
	if doc["AllowedSubject"] != "tenant-017" {
		t.Fatalf("AllowedSubject = %v", doc["AllowedSubject"])
	}
	if doc["CertFile"] != l.CertPath() {
		t.Fatalf("CertFile = %v", doc["CertFile"])
	}
}

func TestApplyRendersWholeChain(t *testing.T) {
	l := DefaultLayout(t.TempDir())
	m := NewManager(l, nil)
	reg := testRegistry(t, l)

	if err := m.Apply(reg, Params{Port: 50017, Address: "edge.example.org", Subject: "tenant-017"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !l.Exists() {
		t.Fatal("layout missing after Apply")
	}
	for _, name := range []string{"gateway", "edge-api", "batch-runner"} {
		svc, _ := reg.Lookup(name)
		if _, err := os.Stat(svc.ConfigPath); err != nil {
			t.Fatalf("config for %s not rendered: %v", name, err)
		}
	}
	// Batch runner names its external tools.
	svc, _ := reg.Lookup("batch-runner")
	b, _ := os.ReadFile(svc.ConfigPath)
	if !strings.Contains(string(b), "sbatch") {
		t.Fatalf("batch-runner config missing tool paths:\n%s", b)
	}
}

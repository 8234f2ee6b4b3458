package scriptmode

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeScript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHashScriptFile(t *testing.T) {
	a := writeScript(t, "a.js", "workflow('wf', {})")
	b := writeScript(t, "b.js", "workflow('wf', {})")
	c := writeScript(t, "c.js", "workflow('other', {})")

	va, err := HashScriptFile(a)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if len(va) != versionLen {
		t.Errorf("version length = %d", len(va))
	}

	vb, _ := HashScriptFile(b)
	if va != vb {
		t.Errorf("same content hashed differently: %q vs %q", va, vb)
	}

	vc, _ := HashScriptFile(c)
	if va == vc {
		t.Error("different content hashed identically")
	}
}

func TestHashScriptFileMissing(t *testing.T) {
	if _, err := HashScriptFile("/nonexistent/script.js"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestArchiveSuffix(t *testing.T) {
	if got := ArchiveSuffix("abc123"); got != "scriptmode-abc123.tar.gz" {
		t.Errorf("suffix = %q", got)
	}
}

func TestPackage(t *testing.T) {
	path := writeScript(t, "my_flow.js", "workflow('wf', {inputs: {}})")

	data, err := Package(path)
	if err != nil {
		t.Fatalf("package: %v", err)
	}

	// Archive round-trips to the original script under its base name.
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	tr := tar.NewReader(gz)
	hdr, err := tr.Next()
	if err != nil {
		t.Fatalf("tar: %v", err)
	}
	if hdr.Name != "my_flow.js" {
		t.Errorf("entry name = %q", hdr.Name)
	}
	content, err := io.ReadAll(tr)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if string(content) != "workflow('wf', {inputs: {}})" {
		t.Errorf("entry content = %q", content)
	}
	if _, err := tr.Next(); err != io.EOF {
		t.Error("archive should contain exactly one entry")
	}

	// Packaging is deterministic for a given script.
	again, err := Package(path)
	if err != nil {
		t.Fatalf("package again: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("packaging the same script produced different bytes")
	}
}

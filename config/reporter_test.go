package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()

	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("unable to read %s: %v", f.Name, err)
		}
		files[f.Name] = string(data)
	}
	return files
}

func TestReport_StoreAndClose(t *testing.T) {
	dir := t.TempDir()

	conf := ReporterConfig{Destination: filepath.Join(dir, "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}

	src := filepath.Join(dir, "book.txt")
	if err := os.WriteFile(src, []byte("-----File: 001.png---\nHello\n"), 0644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	r.Store("source/book.txt", src)
	r.StoreData("outline.txt", []byte("page 1\n"))

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	files := readArchive(t, conf.Destination)
	if _, ok := files["MANIFEST"]; !ok {
		t.Error("report has no MANIFEST")
	}
	if !strings.Contains(files["MANIFEST"], "source/book.txt") {
		t.Errorf("MANIFEST does not list stored file:\n%s", files["MANIFEST"])
	}
	if files["source/book.txt"] != "-----File: 001.png---\nHello\n" {
		t.Errorf("stored file content = %q", files["source/book.txt"])
	}
	if files["outline.txt"] != "page 1\n" {
		t.Errorf("stored data content = %q", files["outline.txt"])
	}
}

func TestReport_StoreOverwritePanics(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.StoreData("a", []byte("1"))

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate StoreData")
		}
	}()
	r.StoreData("a", []byte("2"))
}

func TestReport_Name(t *testing.T) {
	var r *Report
	if r.Name() != "" {
		t.Error("nil report should have empty name")
	}
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
	// methods on nil report are no-ops
	r.Store("x", "y")
	r.StoreData("x", nil)
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}

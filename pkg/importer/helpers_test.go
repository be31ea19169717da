package importer

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/touchstone-abbrev/pkg/rules"
)

func init() {
	retryBackoff = time.Millisecond
}

func TestDownloadFile(t *testing.T) {
	content := "hello world"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Thu, 21 Sep 2023 00:00:00 GMT")
		w.Write([]byte(content))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "test.txt")
	got, err := downloadFile(context.Background(), ts.URL, dest)
	if err != nil {
		t.Fatalf("downloadFile: %v", err)
	}
	want := Fetched{
		// sha256("hello world")
		SHA256:       "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		Size:         int64(len(content)),
		ETag:         `"v1"`,
		LastModified: "Thu, 21 Sep 2023 00:00:00 GMT",
	}
	if got != want {
		t.Errorf("fetched = %+v, want %+v", got, want)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != content {
		t.Errorf("content = %q, want %q", string(data), content)
	}
}

func TestDownloadFile_Retry(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "retry.txt")
	if _, err := downloadFile(context.Background(), ts.URL, dest); err != nil {
		t.Fatalf("downloadFile with retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDownloadFile_AllFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "fail.txt")
	_, err := downloadFile(context.Background(), ts.URL, dest)
	if err == nil {
		t.Error("expected error after all retries exhausted")
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(w, content)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestUnzipFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.zip")
	writeZip(t, src, map[string]string{"nested/elf.csv": "a,b\n", "readme.txt": "x"})

	zipped, err := isZip(src)
	if err != nil || !zipped {
		t.Fatalf("isZip = %v, %v", zipped, err)
	}

	out := t.TempDir()
	paths, err := unzipFile(src, out)
	if err != nil {
		t.Fatalf("unzipFile: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v", paths)
	}
	csvPath := findFile(paths, ".CSV")
	if csvPath != filepath.Join(out, "elf.csv") {
		t.Errorf("findFile = %q", csvPath)
	}
}

func TestIsZip_PlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.csv")
	os.WriteFile(path, []byte("a,b\n"), 0o644)
	zipped, err := isZip(path)
	if err != nil || zipped {
		t.Errorf("isZip = %v, %v, want false", zipped, err)
	}

	short := filepath.Join(t.TempDir(), "short")
	os.WriteFile(short, []byte("P"), 0o644)
	if zipped, _ := isZip(short); zipped {
		t.Error("short file reported as zip")
	}
}

func TestDecodeReader(t *testing.T) {
	r, err := decodeReader(strings.NewReader("Soci\xe9t\xe9 G\xe9n\xe9rale"), "windows-1252")
	if err != nil {
		t.Fatalf("decodeReader: %v", err)
	}
	data, _ := io.ReadAll(r)
	if string(data) != "Société Générale" {
		t.Errorf("decoded = %q", data)
	}

	if _, err := decodeReader(strings.NewReader(""), "no-such-charset"); err == nil {
		t.Error("expected error for unknown charset")
	}

	r, _ = decodeReader(strings.NewReader("déjà"), "UTF-8")
	data, _ = io.ReadAll(r)
	if string(data) != "déjà" {
		t.Errorf("utf-8 passthrough = %q", data)
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	m := &rules.Manifest{
		ID:      "elf-fr",
		Version: "2026-02",
		Locale:  "fr",
		Source:  "test",
		License: "CC0",
		Company: &rules.CompanyRules{LegalSuffixes: []string{"S.A.R.L.", "SAS"}},
	}

	pack, err := writeManifest(dir, m)
	if err != nil {
		t.Fatalf("writeManifest: %v", err)
	}
	if pack.Path != filepath.Join(dir, "elf-fr.yaml") || pack.Locale != "fr" || pack.Entries != 2 {
		t.Errorf("pack = %+v", pack)
	}
	sum, err := fileSHA256(pack.Path)
	if err != nil || sum != pack.SHA256 {
		t.Errorf("fileSHA256 = %q, %v, want %q", sum, err, pack.SHA256)
	}

	loaded, err := rules.LoadManifest(pack.Path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if loaded.ID != "elf-fr" || loaded.Locale != "fr" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Title != nil {
		t.Errorf("title = %+v, want nil", loaded.Title)
	}
	if len(loaded.Company.LegalSuffixes) != 2 || loaded.Company.LegalSuffixes[0] != "S.A.R.L." {
		t.Errorf("suffixes = %v", loaded.Company.LegalSuffixes)
	}
}

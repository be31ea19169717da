// CLAUDE:SUMMARY Shared import utilities: HTTP download with retries, ZIP extraction, charset decoding, rule pack writer.
package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/touchstone-abbrev/pkg/rules"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"
)

var retryBackoff = time.Second

// downloadFile downloads url to dest with retries and timeout. It returns
// the SHA-256 and size of what was written along with the response's
// validators, so a later HEAD can tell whether the upstream file changed.
func downloadFile(ctx context.Context, url, dest string) (Fetched, error) {
	client := &http.Client{Timeout: 10 * time.Minute}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			backoff := retryBackoff << uint(attempt)
			select {
			case <-ctx.Done():
				return Fetched{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Fetched{}, fmt.Errorf("create request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
			continue
		}

		f, err := os.Create(dest)
		if err != nil {
			resp.Body.Close()
			return Fetched{}, fmt.Errorf("create file: %w", err)
		}

		h := sha256.New()
		n, copyErr := io.Copy(io.MultiWriter(f, h), resp.Body)
		resp.Body.Close()
		closeErr := f.Close()

		if copyErr != nil {
			lastErr = copyErr
			continue
		}
		if closeErr != nil {
			return Fetched{}, closeErr
		}
		return Fetched{
			SHA256:       hex.EncodeToString(h.Sum(nil)),
			Size:         n,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}, nil
	}
	return Fetched{}, fmt.Errorf("download %s failed after 3 attempts: %w", url, lastErr)
}

// isZip reports whether the file at path starts with the ZIP local header magic.
func isZip(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return false, nil
	}
	return bytes.Equal(magic, []byte("PK\x03\x04")), nil
}

// unzipFile extracts a ZIP archive to destDir and returns the list of extracted file paths.
// Entry names are flattened to their base name.
func unzipFile(src, destDir string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var paths []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		destPath := filepath.Join(destDir, filepath.Base(f.Name))
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry %s: %w", f.Name, err)
		}

		out, err := os.Create(destPath)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("create %s: %w", destPath, err)
		}

		if _, err := io.Copy(out, rc); err != nil {
			rc.Close()
			out.Close()
			return nil, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		rc.Close()
		out.Close()
		paths = append(paths, destPath)
	}
	return paths, nil
}

// findFile returns the first path with the given extension, case-insensitively.
func findFile(paths []string, ext string) string {
	for _, p := range paths {
		if strings.EqualFold(filepath.Ext(p), ext) {
			return p
		}
	}
	return ""
}

// decodeReader wraps r so that it yields UTF-8 from the named charset
// (any WHATWG label: "windows-1252", "latin1", "utf-16le"...).
// An empty charset or utf-8 returns r unchanged.
func decodeReader(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return r, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", charset, err)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// writeManifest writes a rule pack as YAML to dir/<m.ID>.yaml and describes
// the file written.
func writeManifest(dir string, m *rules.Manifest) (Pack, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return Pack{}, fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(dir, m.ID+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Pack{}, fmt.Errorf("write manifest: %w", err)
	}
	sum := sha256.Sum256(data)
	pack := Pack{
		Locale: m.Locale,
		Path:   path,
		SHA256: hex.EncodeToString(sum[:]),
	}
	if m.Company != nil {
		pack.Entries += len(m.Company.LegalSuffixes) + len(m.Company.NoiseWords)
	}
	pack.Entries += m.Title.Len()
	return pack, nil
}

// fileSHA256 returns the hex SHA-256 of the file at path.
func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ensureDir creates a directory if it doesn't exist.
func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

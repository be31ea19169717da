package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// DriftState classifies an import source against its last import.
type DriftState string

const (
	// StateCurrent: the upstream code list and the pack files on disk both
	// match what the last import recorded.
	StateCurrent DriftState = "current"
	// StateNotImported: the source has never been imported.
	StateNotImported DriftState = "not_imported"
	// StateUnreachable: the source URL did not answer with 2xx or 3xx.
	StateUnreachable DriftState = "unreachable"
	// StateUpstreamChanged: the code list at the source URL differs from the
	// one the packs were built from, or the URL itself was changed.
	StateUpstreamChanged DriftState = "upstream_changed"
	// StatePacksModified: a pack file written by the last import was edited
	// or removed.
	StatePacksModified DriftState = "packs_modified"
)

// remoteInfo is what a HEAD request tells about the upstream code list.
type remoteInfo struct {
	Status       int
	ETag         string
	LastModified string
	Size         int64
}

// Checker periodically compares every import source with its last import:
// a HEAD request for the upstream side, file digests for the packs on disk.
type Checker struct {
	sources  *SourceDB
	logger   *slog.Logger
	interval time.Duration
	client   *http.Client
}

// NewChecker creates a Checker that runs every interval.
func NewChecker(sources *SourceDB, logger *slog.Logger, interval time.Duration) *Checker {
	return &Checker{
		sources:  sources,
		logger:   logger,
		interval: interval,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Start runs an immediate check then repeats every interval until ctx is
// cancelled. It always returns nil so it can run in an errgroup.
func (c *Checker) Start(ctx context.Context) error {
	c.CheckAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll checks every source, records the outcome and logs sources that
// need a re-import or are unreachable.
func (c *Checker) CheckAll(ctx context.Context) {
	sources, err := c.sources.ListSources()
	if err != nil {
		c.logger.Error("drift check: list sources", "error", err)
		return
	}
	if len(sources) == 0 {
		return
	}

	counts := make(map[DriftState]int)
	for _, src := range sources {
		if ctx.Err() != nil {
			return
		}
		rec := c.checkSource(ctx, src)
		counts[rec.State]++

		if err := c.sources.RecordCheck(src.AdapterID, rec); err != nil {
			c.logger.Error("drift check: record result", "adapter", src.AdapterID, "error", err)
		}

		switch rec.State {
		case StateUnreachable:
			c.logger.Warn("source unreachable",
				"adapter", src.AdapterID, "url", src.URL, "status", rec.Status, "error", rec.Detail)
		case StateUpstreamChanged, StatePacksModified:
			c.logger.Warn("rule packs out of date, re-import needed",
				"adapter", src.AdapterID, "state", rec.State, "detail", rec.Detail)
		}
	}

	c.logger.Info("drift check complete",
		"total", len(sources),
		"current", counts[StateCurrent],
		"changed", counts[StateUpstreamChanged]+counts[StatePacksModified],
		"unreachable", counts[StateUnreachable],
		"not_imported", counts[StateNotImported],
	)
}

func (c *Checker) checkSource(ctx context.Context, src Source) CheckRecord {
	remote, headErr := c.head(ctx, src.URL)

	var packs []Pack
	if src.Imported != nil {
		var err error
		if packs, err = c.sources.Packs(src.AdapterID); err != nil {
			c.logger.Error("drift check: list packs", "adapter", src.AdapterID, "error", err)
		}
	}

	rec := assess(src, remote, headErr, packDrift(packs))
	rec.At = time.Now().Unix()
	return rec
}

// assess decides the drift state of src. Unreachable wins over every other
// state; upstream changes win over local edits since a re-import fixes both.
func assess(src Source, remote remoteInfo, headErr error, local []string) CheckRecord {
	rec := CheckRecord{Status: remote.Status}
	if headErr != nil || remote.Status < 200 || remote.Status >= 400 {
		rec.State = StateUnreachable
		if headErr != nil {
			rec.Detail = headErr.Error()
		} else {
			rec.Detail = fmt.Sprintf("HTTP %d", remote.Status)
		}
		return rec
	}
	if src.Imported == nil {
		rec.State = StateNotImported
		return rec
	}
	if upstream := upstreamDrift(src, remote); len(upstream) > 0 {
		rec.State = StateUpstreamChanged
		rec.Detail = strings.Join(append(upstream, local...), "; ")
		return rec
	}
	if len(local) > 0 {
		rec.State = StatePacksModified
		rec.Detail = strings.Join(local, "; ")
		return rec
	}
	rec.State = StateCurrent
	return rec
}

// upstreamDrift lists how the code list at src.URL differs from the one
// recorded at import. Validators are compared only when both sides carry
// them; a redirect carries none.
func upstreamDrift(src Source, remote remoteInfo) []string {
	imp := src.Imported
	var out []string
	if imp.URL != "" && imp.URL != src.URL {
		out = append(out, "source URL changed since import")
	}
	if remote.Status >= 300 {
		return out
	}
	switch {
	case remote.ETag != "" && imp.Fetched.ETag != "":
		if remote.ETag != imp.Fetched.ETag {
			out = append(out, fmt.Sprintf("etag %s, imported %s", remote.ETag, imp.Fetched.ETag))
		}
	case remote.LastModified != "" && imp.Fetched.LastModified != "":
		if remote.LastModified != imp.Fetched.LastModified {
			out = append(out, fmt.Sprintf("last-modified %s, imported %s", remote.LastModified, imp.Fetched.LastModified))
		}
	case remote.Size > 0 && imp.Fetched.Size > 0:
		if remote.Size != imp.Fetched.Size {
			out = append(out, fmt.Sprintf("size %d, imported %d", remote.Size, imp.Fetched.Size))
		}
	}
	return out
}

// packDrift lists the recorded pack files that are missing or whose content
// no longer matches the digest taken when they were written.
func packDrift(packs []Pack) []string {
	var out []string
	for _, p := range packs {
		sum, err := fileSHA256(p.Path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			out = append(out, filepath.Base(p.Path)+" missing")
		case err != nil:
			out = append(out, filepath.Base(p.Path)+": "+err.Error())
		case sum != p.SHA256:
			out = append(out, filepath.Base(p.Path)+" edited")
		}
	}
	return out
}

// head sends a HEAD request and returns the status with the validators of
// the response. On network error, status is 0.
func (c *Checker) head(ctx context.Context, url string) (remoteInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return remoteInfo{}, fmt.Errorf("build request: %w", err)
	}
	// Compare against the identity length the download recorded.
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := c.client.Do(req)
	if err != nil {
		return remoteInfo{}, fmt.Errorf("HEAD %s: %w", url, err)
	}
	resp.Body.Close()

	return remoteInfo{
		Status:       resp.StatusCode,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		Size:         resp.ContentLength,
	}, nil
}

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/homecalc/internal/model"
)

const maxSnapshotSize = 1 << 20 // 1 MB

// SnapshotProvider reads the prebuilt rates.json, from a local path or a
// URL. A missing snapshot is not an error.
type SnapshotProvider struct {
	Path string
	URL  string
	HTTP *http.Client
	Log  logrus.FieldLogger
}

// Name implements Provider.
func (p SnapshotProvider) Name() string { return "snapshot" }

// Load implements Provider.
func (p SnapshotProvider) Load(ctx context.Context) (*model.RatesPayload, bool) {
	var (
		payload *model.RatesPayload
		err     error
	)
	switch {
	case p.URL != "":
		payload, err = p.fetch(ctx)
	case p.Path != "":
		payload, err = ReadSnapshot(p.Path)
	default:
		return nil, false
	}
	if err != nil {
		if !os.IsNotExist(err) {
			logger(p.Log).WithError(err).Debug("snapshot unavailable")
		}
		return nil, false
	}
	return payload, payload.HasData()
}

func (p SnapshotProvider) fetch(ctx context.Context) (*model.RatesPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot request: %w", err)
	}
	client := p.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching snapshot: status %d", resp.StatusCode)
	}
	return decodeSnapshot(io.LimitReader(resp.Body, maxSnapshotSize))
}

// ReadSnapshot loads a snapshot file.
func ReadSnapshot(path string) (*model.RatesPayload, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from config
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return decodeSnapshot(io.LimitReader(f, maxSnapshotSize))
}

func decodeSnapshot(r io.Reader) (*model.RatesPayload, error) {
	var p model.RatesPayload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return &p, nil
}

// WriteSnapshot writes p to path atomically, pretty-printed.
func WriteSnapshot(path string, p *model.RatesPayload) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".rates-*.json")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // snapshot is public data
		return fmt.Errorf("chmod snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

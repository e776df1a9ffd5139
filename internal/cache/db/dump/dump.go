// Package dump persists cache snapshots as a single JSON document.
//
// The document maps every cache key to a record
//
//	{"data": <value>, "cached_at": <timestamp>, "accessed_at": <timestamp>}
//
// plus the reserved "_metadata" key holding {"last_fetch_timestamp": <timestamp or null>}.
// Writes go to a temporary file in the same directory which is then renamed over the
// target, so a crash never leaves a half-written document behind.
package dump

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/udaytamma/AiEmailAssistant/internal/shared/atomicfile"
)

// MetadataKey is the reserved document key holding cache-wide metadata.
const MetadataKey = "_metadata"

// ErrNoDump is returned by Read when nothing was persisted yet.
var ErrNoDump = errors.New("cache dump does not exist")

// Record is one persisted entry. Data stays raw so that an undecodable value
// only loses its own entry.
type Record struct {
	Data       json.RawMessage `json:"data"`
	CachedAt   string          `json:"cached_at"`
	AccessedAt string          `json:"accessed_at,omitempty"`
}

type Metadata struct {
	LastFetchTimestamp *string `json:"last_fetch_timestamp"`
}

// Snapshot is the whole persisted document.
type Snapshot struct {
	Entries  map[string]Record
	Metadata Metadata
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(s.Entries)+1)
	for k, r := range s.Entries {
		doc[k] = r
	}
	doc[MetadataKey] = s.Metadata
	return json.Marshal(doc)
}

// UnmarshalJSON skips records that are not objects of the expected shape.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	s.Entries = make(map[string]Record, len(doc))
	for k, raw := range doc {
		if k == MetadataKey {
			if err := json.Unmarshal(raw, &s.Metadata); err != nil {
				s.Metadata = Metadata{}
			}
			continue
		}
		var r Record
		if err := json.Unmarshal(raw, &r); err != nil || len(r.Data) == 0 {
			continue
		}
		s.Entries[k] = r
	}
	return nil
}

// Storage reads and writes whole snapshots.
type Storage interface {
	Read() (Snapshot, error)
	Write(s Snapshot) error
	Remove() error
	Location() string
}

// File is a Storage backed by one file on disk.
type File struct {
	path   string
	gzip   bool
	logger zerolog.Logger
}

func NewFile(path string, gzipped bool, logger zerolog.Logger) *File {
	return &File{path: path, gzip: gzipped, logger: logger}
}

func (f *File) Location() string { return f.path }

func (f *File) Write(s Snapshot) error {
	start := time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache snapshot: %w", err)
	}

	err = atomicfile.Write(f.path, 0o644, func(w io.Writer) error {
		if !f.gzip {
			_, werr := w.Write(data)
			return werr
		}
		gw := gzip.NewWriter(w)
		if _, werr := gw.Write(data); werr != nil {
			return werr
		}
		return gw.Close()
	})
	if err != nil {
		return fmt.Errorf("write cache file %s: %w", f.path, err)
	}

	f.logger.Info().
		Int("entries", len(s.Entries)).
		Int("bytes", len(data)).
		Bool("gzip", f.gzip).
		Str("file", f.path).
		Str("elapsed", time.Since(start).String()).
		Msg("dumping finished")
	return nil
}

// Read returns ErrNoDump when the file is absent and a decode error when it is corrupt.
func (f *File) Read() (Snapshot, error) {
	start := time.Now()

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, ErrNoDump
	} else if err != nil {
		return Snapshot{}, fmt.Errorf("read cache file %s: %w", f.path, err)
	}

	if f.gzip || isGzip(raw) {
		gzr, gerr := gzip.NewReader(bytes.NewReader(raw))
		if gerr != nil {
			return Snapshot{}, fmt.Errorf("open gzip cache file %s: %w", f.path, gerr)
		}
		defer gzr.Close()
		if raw, err = io.ReadAll(gzr); err != nil {
			return Snapshot{}, fmt.Errorf("decompress cache file %s: %w", f.path, err)
		}
	}

	var s Snapshot
	if err = json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode cache file %s: %w", f.path, err)
	}

	f.logger.Info().
		Int("restored", len(s.Entries)).
		Str("file", f.path).
		Str("elapsed", time.Since(start).String()).
		Msg("restoring dump")
	return s, nil
}

// Remove deletes the file. A missing file is not an error.
func (f *File) Remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache file %s: %w", f.path, err)
	}
	f.logger.Info().Str("file", f.path).Msg("dump removed")
	return nil
}

func isGzip(b []byte) bool {
	return len(b) > 2 && b[0] == 0x1f && b[1] == 0x8b
}

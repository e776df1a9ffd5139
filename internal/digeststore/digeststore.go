// Package digeststore keeps the latest digest document on disk for the dashboard.
package digeststore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/udaytamma/AiEmailAssistant/internal/shared/atomicfile"
	"github.com/udaytamma/AiEmailAssistant/model"
)

// ErrNoDigest is returned when no digest was written yet.
var ErrNoDigest = errors.New("no digest available")

type Metadata struct {
	LastUpdated time.Time `json:"last_updated"`
	// ExecutionTime is the run duration in seconds.
	ExecutionTime float64 `json:"execution_time"`
	TotalEmails   int     `json:"total_emails"`
	RunID         string  `json:"run_id"`
}

// Document is the persisted result of one run.
type Document struct {
	Metadata          Metadata                `json:"metadata"`
	Digest            model.DigestResult      `json:"digest"`
	CategorizedEmails []model.CategorizedItem `json:"categorized_emails"`
}

func NewDocument(runID string, finishedAt time.Time, elapsed time.Duration, digest model.DigestResult, items []model.CategorizedItem) Document {
	if items == nil {
		items = []model.CategorizedItem{}
	}
	return Document{
		Metadata: Metadata{
			LastUpdated:   finishedAt,
			ExecutionTime: math.Round(elapsed.Seconds()*100) / 100,
			TotalEmails:   len(items),
			RunID:         runID,
		},
		Digest:            digest,
		CategorizedEmails: items,
	}
}

type Store struct {
	path   string
	logger *slog.Logger
}

func New(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

func (s *Store) Path() string { return s.path }

// Save replaces the stored document atomically.
func (s *Store) Save(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode digest: %w", err)
	}
	if err = atomicfile.WriteBytes(s.path, 0o644, data); err != nil {
		return fmt.Errorf("save digest %s: %w", s.path, err)
	}
	s.logger.Info("digest saved", "file", s.path, "run_id", doc.Metadata.RunID, "total_emails", doc.Metadata.TotalEmails)
	return nil
}

// Raw returns the stored document as written.
func (s *Store) Raw() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoDigest
	} else if err != nil {
		return nil, fmt.Errorf("read digest %s: %w", s.path, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("read digest %s: %w", s.path, ErrNoDigest)
	}
	return data, nil
}

func (s *Store) Load() (Document, error) {
	data, err := s.Raw()
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err = json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode digest %s: %w", s.path, err)
	}
	return doc, nil
}

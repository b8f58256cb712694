// Custom HSV range persistence
package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"invisibility-cloak/internal/cloak"
)

const (
	// CustomLabel keys the saved range inside the tuning document
	CustomLabel = "custom"

	// DefaultTuningPath is where tuning is saved when nothing else is configured
	DefaultTuningPath = "custom_hsv.json"

	customDescription = "Custom HSV range"
	timestampLayout   = "2006-01-02T15:04:05.000000"
	maxTuningFileSize = 1 * 1024 * 1024
)

// TuningRecord is one saved entry of a tuning document
type TuningRecord struct {
	Ranges      []cloak.ColorRange `json:"ranges"`
	Description string             `json:"description"`
	Timestamp   string             `json:"timestamp"`
}

// TuningDocument maps labels to saved records
type TuningDocument map[string]TuningRecord

// TuningStore reads and writes tuning documents
type TuningStore struct {
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewTuningStore creates a new store
func NewTuningStore(logger logrus.FieldLogger) *TuningStore {
	return &TuningStore{logger: logger, now: time.Now}
}

// Save writes r as the custom record of a new document at path
func (ts *TuningStore) Save(r cloak.ColorRange, path string) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid range: %w", err)
	}

	doc := TuningDocument{
		CustomLabel: {
			Ranges:      []cloak.ColorRange{r},
			Description: customDescription,
			Timestamp:   ts.now().Format(timestampLayout),
		},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tuning: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, 0o644); err != nil {
		return fmt.Errorf("failed to write tuning file: %w", err)
	}

	ts.logger.WithFields(logrus.Fields{
		"path":  path,
		"range": r.String(),
	}).Info("TUNER: HSV settings saved")
	return nil
}

// Load reads the custom record at path as a preset named "custom".
// A missing file returns an error matching os.ErrNotExist.
func (ts *TuningStore) Load(path string) (cloak.Preset, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cloak.Preset{}, fmt.Errorf("tuning file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return cloak.Preset{}, fmt.Errorf("failed to stat tuning file: %w", err)
	}
	if info.Size() > maxTuningFileSize {
		return cloak.Preset{}, fmt.Errorf("tuning file too large: %d bytes (max %d)", info.Size(), maxTuningFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cloak.Preset{}, fmt.Errorf("failed to read tuning file: %w", err)
	}

	var doc TuningDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return cloak.Preset{}, fmt.Errorf("failed to parse tuning JSON: %w", err)
	}

	rec, ok := doc[CustomLabel]
	if !ok {
		return cloak.Preset{}, fmt.Errorf("tuning file has no %q entry", CustomLabel)
	}
	if len(rec.Ranges) == 0 {
		return cloak.Preset{}, errors.New("tuning entry has no ranges")
	}
	for i, r := range rec.Ranges {
		if err := r.Validate(); err != nil {
			return cloak.Preset{}, fmt.Errorf("range %d: %w", i, err)
		}
	}

	description := rec.Description
	if description == "" {
		description = customDescription
	}
	return cloak.Preset{
		Name:        CustomLabel,
		Ranges:      rec.Ranges,
		Description: description,
	}, nil
}

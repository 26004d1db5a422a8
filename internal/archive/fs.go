package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/utilitarian/spot-archive/internal/model"
)

// FSStore persists partitions as index.json files in the layout served by
// the static site:
//
//	<root>/<area>/<year>/index.json
//	<root>/<area>/<year>/<month>/index.json
//	<root>/<area>/<year>/<month>/<day>/index.json
//	<root>/<area>/latest/index.json
//	<root>/<area>/<year>/stats.json
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem store rooted at root.
func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

// Read loads a partition. A missing file is an empty partition, not an
// error.
func (s *FSStore) Read(_ context.Context, area string, g Granularity, key string) ([]model.PricePoint, error) {
	path, err := s.partitionPath(area, g, key)
	if err != nil {
		return nil, &PersistenceError{Area: area, Granularity: g, Key: key, Op: "read", Err: err}
	}

	var points []model.PricePoint
	if err := s.readJSON(path, &points); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &PersistenceError{Area: area, Granularity: g, Key: key, Op: "read", Err: err}
	}
	return points, nil
}

// Write replaces a partition with the given point set. The file is written
// to a temporary sibling and renamed into place, so readers never observe a
// partial partition.
func (s *FSStore) Write(_ context.Context, area string, g Granularity, key string, points []model.PricePoint) error {
	path, err := s.partitionPath(area, g, key)
	if err != nil {
		return &PersistenceError{Area: area, Granularity: g, Key: key, Op: "write", Err: err}
	}
	if points == nil {
		points = []model.PricePoint{}
	}
	if err := s.writeJSON(path, points); err != nil {
		return &PersistenceError{Area: area, Granularity: g, Key: key, Op: "write", Err: err}
	}
	return nil
}

// ReadStats loads the statistics file for one year.
func (s *FSStore) ReadStats(_ context.Context, area, year string) ([]model.DayStatistics, error) {
	path := filepath.Join(s.root, area, year, "stats.json")

	var stats []model.DayStatistics
	if err := s.readJSON(path, &stats); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &PersistenceError{Area: area, Granularity: GranularityYear, Key: year, Op: "read", Err: err}
	}
	return stats, nil
}

// WriteStats replaces the statistics file for one year.
func (s *FSStore) WriteStats(_ context.Context, area, year string, stats []model.DayStatistics) error {
	path := filepath.Join(s.root, area, year, "stats.json")
	if stats == nil {
		stats = []model.DayStatistics{}
	}
	if err := s.writeJSON(path, stats); err != nil {
		return &PersistenceError{Area: area, Granularity: GranularityYear, Key: year, Op: "write", Err: err}
	}
	return nil
}

func (s *FSStore) partitionPath(area string, g Granularity, key string) (string, error) {
	switch g {
	case GranularityDay:
		parts := strings.SplitN(key, "-", 3)
		if len(parts) != 3 {
			return "", fmt.Errorf("bad day key %q", key)
		}
		return filepath.Join(s.root, area, parts[0], parts[1], parts[2], "index.json"), nil
	case GranularityMonth:
		parts := strings.SplitN(key, "-", 2)
		if len(parts) != 2 {
			return "", fmt.Errorf("bad month key %q", key)
		}
		return filepath.Join(s.root, area, parts[0], parts[1], "index.json"), nil
	case GranularityYear:
		if key == "" {
			return "", fmt.Errorf("bad year key %q", key)
		}
		return filepath.Join(s.root, area, key, "index.json"), nil
	case GranularityLatest:
		return filepath.Join(s.root, area, "latest", "index.json"), nil
	default:
		return "", fmt.Errorf("unknown granularity %q", g)
	}
}

func (s *FSStore) readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (s *FSStore) writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

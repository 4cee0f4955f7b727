package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AI-et-al/janus/budget"
	"github.com/AI-et-al/janus/catalog"
	"github.com/AI-et-al/janus/rating"
)

// File names under the store root.
const (
	catalogFile   = "catalog.json"
	ratingsFile   = "ratings.ndjson"
	snapshotFile  = "tier_snapshot.json"
	freshnessFile = "freshness.json"
	budgetFile    = "budget.json"
	artifactsDir  = "artifacts"
)

// FileStore implements ContextStore on a local directory.
type FileStore struct {
	root string
	mu   sync.Mutex
}

// NewFileStore creates the store root if needed.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("store root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Root returns the store's base directory.
func (s *FileStore) Root() string { return s.root }

// CatalogPath returns the catalog file path, used by the watcher.
func (s *FileStore) CatalogPath() string { return filepath.Join(s.root, catalogFile) }

// ReadCatalog loads the catalog, defaulting when the file is missing.
func (s *FileStore) ReadCatalog() (catalog.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return catalog.Load(s.CatalogPath())
}

// WriteCatalog replaces the catalog file.
func (s *FileStore) WriteCatalog(c catalog.Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.Save(s.CatalogPath())
}

// AppendRating appends one validated event as a JSON line.
func (s *FileStore) AppendRating(e rating.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode rating: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(filepath.Join(s.root, ratingsFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open rating log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append rating: %w", err)
	}
	return nil
}

// ListRatings reads the full history, skipping lines that do not decode.
// Skipping rather than failing keeps one corrupt line from disabling tier
// learning for every model.
func (s *FileStore) ListRatings() ([]rating.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(filepath.Join(s.root, ratingsFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open rating log: %w", err)
	}
	defer f.Close()

	var events []rating.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e rating.Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rating log: %w", err)
	}
	return events, nil
}

// ReadTierSnapshot returns the snapshot or (nil, nil) when absent.
func (s *FileStore) ReadTierSnapshot() (*catalog.TierSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.root, snapshotFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tier snapshot: %w", err)
	}
	var snap catalog.TierSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse tier snapshot: %w", err)
	}
	return &snap, nil
}

// WriteTierSnapshot fully replaces the snapshot file.
func (s *FileStore) WriteTierSnapshot(snap *catalog.TierSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(snapshotFile, snap)
}

// ReadFreshness returns the freshness record, unknown when absent.
func (s *FileStore) ReadFreshness() (catalog.Freshness, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.root, freshnessFile))
	if os.IsNotExist(err) {
		return catalog.Freshness{Status: catalog.StatusUnknown}, nil
	}
	if err != nil {
		return catalog.Freshness{}, fmt.Errorf("read freshness: %w", err)
	}
	var f catalog.Freshness
	if err := json.Unmarshal(data, &f); err != nil {
		return catalog.Freshness{}, fmt.Errorf("parse freshness: %w", err)
	}
	return f, nil
}

// WriteFreshness replaces the freshness record.
func (s *FileStore) WriteFreshness(f catalog.Freshness) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(freshnessFile, f)
}

// ReadBudget returns the persisted ledger state.
func (s *FileStore) ReadBudget() (budget.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.root, budgetFile))
	if os.IsNotExist(err) {
		return budget.State{}, false, nil
	}
	if err != nil {
		return budget.State{}, false, fmt.Errorf("read budget: %w", err)
	}
	var st budget.State
	if err := json.Unmarshal(data, &st); err != nil {
		return budget.State{}, false, fmt.Errorf("parse budget: %w", err)
	}
	return st, true, nil
}

// WriteBudget persists the ledger state.
func (s *FileStore) WriteBudget(st budget.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(budgetFile, st)
}

// WriteArtifact stores one artifact file. Path components are sanitized so
// an artifact name can never escape the artifacts tree.
func (s *FileStore) WriteArtifact(sessionID, taskID, name string, data []byte) (ArtifactRef, error) {
	dir := filepath.Join(s.root, artifactsDir, sanitize(sessionID), sanitize(taskID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ArtifactRef{}, fmt.Errorf("create artifact dir: %w", err)
	}
	path := filepath.Join(dir, sanitize(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ArtifactRef{}, fmt.Errorf("write artifact: %w", err)
	}
	return ArtifactRef{SessionID: sessionID, TaskID: taskID, Name: name, Path: path}, nil
}

func (s *FileStore) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.root, name), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// sanitize flattens a path component: separators and traversal dots become
// underscores, empty strings become "unnamed".
func sanitize(component string) string {
	if component == "" {
		return "unnamed"
	}
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_", ":", "_")
	return r.Replace(component)
}

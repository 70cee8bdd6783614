package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rlefko/planguard/internal/plan"
)

const (
	planSuffix    = "_plan.json"
	historySuffix = "_history.json"
)

// Persistence saves and loads plans and their revision-history managers as
// JSON files under a storage directory, grounded on PlanPersistence.
type Persistence struct {
	storageDir string
}

// NewPersistence creates storageDir if it does not already exist and
// returns a Persistence rooted there.
func NewPersistence(storageDir string) (*Persistence, error) {
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Persistence{storageDir: storageDir}, nil
}

func safeName(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_")
	return r.Replace(name)
}

func (p *Persistence) planPath(name string) string {
	return filepath.Join(p.storageDir, safeName(name)+planSuffix)
}

func (p *Persistence) historyPath(name string) string {
	return filepath.Join(p.storageDir, safeName(name)+historySuffix)
}

// SavePlan writes pl to disk under name and returns the path written.
func (p *Persistence) SavePlan(pl plan.ImplementationPlan, name string) (string, error) {
	data, err := json.MarshalIndent(pl, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal plan %q: %w", name, err)
	}
	path := p.planPath(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write plan %q: %w", name, err)
	}
	return path, nil
}

// LoadPlan reads the plan saved under name. ok is false when no file for
// that name exists.
func (p *Persistence) LoadPlan(name string) (pl plan.ImplementationPlan, ok bool, err error) {
	path := p.planPath(name)
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return plan.ImplementationPlan{}, false, nil
		}
		return plan.ImplementationPlan{}, false, fmt.Errorf("read plan %q: %w", name, readErr)
	}
	if err := json.Unmarshal(data, &pl); err != nil {
		return plan.ImplementationPlan{}, false, fmt.Errorf("unmarshal plan %q: %w", name, err)
	}
	return pl, true, nil
}

// SaveHistoryManager writes manager to disk under planName and returns the
// path written.
func (p *Persistence) SaveHistoryManager(manager *Manager, planName string) (string, error) {
	data, err := json.MarshalIndent(manager, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal history %q: %w", planName, err)
	}
	path := p.historyPath(planName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write history %q: %w", planName, err)
	}
	return path, nil
}

// LoadHistoryManager reads the history manager saved under planName. ok is
// false when no file for that name exists.
func (p *Persistence) LoadHistoryManager(planName string) (manager *Manager, ok bool, err error) {
	path := p.historyPath(planName)
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read history %q: %w", planName, readErr)
	}
	manager = NewManager()
	if err := json.Unmarshal(data, manager); err != nil {
		return nil, false, fmt.Errorf("unmarshal history %q: %w", planName, err)
	}
	return manager, true, nil
}

// DeletePlan removes a plan's files (plan + history) from disk. deleted is
// false if neither file existed.
func (p *Persistence) DeletePlan(name string) (deleted bool, err error) {
	for _, path := range []string{p.planPath(name), p.historyPath(name)} {
		removeErr := os.Remove(path)
		if removeErr == nil {
			deleted = true
			continue
		}
		if !os.IsNotExist(removeErr) {
			return deleted, fmt.Errorf("delete %q: %w", path, removeErr)
		}
	}
	return deleted, nil
}

// ListPlans returns every saved plan name, sorted.
func (p *Persistence) ListPlans() ([]string, error) {
	entries, err := os.ReadDir(p.storageDir)
	if err != nil {
		return nil, fmt.Errorf("read storage dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), planSuffix) {
			names = append(names, strings.TrimSuffix(e.Name(), planSuffix))
		}
	}
	sort.Strings(names)
	return names, nil
}

// PlanExists reports whether a plan file exists under name.
func (p *Persistence) PlanExists(name string) bool {
	_, err := os.Stat(p.planPath(name))
	return err == nil
}

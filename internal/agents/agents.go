// Package agents syncs local agent configuration files to the remote
// agents API: read config, fingerprint it, compare against the
// lockfile, create or update remotely, record the new fingerprint.
package agents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AgentConfig is one agent definition file.
type AgentConfig struct {
	Name         string            `yaml:"name"`
	Prompt       string            `yaml:"prompt"`
	FirstMessage string            `yaml:"first_message,omitempty"`
	Language     string            `yaml:"language,omitempty"`
	Model        string            `yaml:"model,omitempty"`
	Tags         []string          `yaml:"tags,omitempty"`
	Variables    map[string]string `yaml:"variables,omitempty"`
}

// LockEntry records the last synced state of one agent.
type LockEntry struct {
	AgentID  string    `yaml:"agent_id"`
	Hash     string    `yaml:"hash"`
	SyncedAt time.Time `yaml:"synced_at"`
}

// LockFile maps agent names to their last synced state.
type LockFile struct {
	Agents map[string]LockEntry `yaml:"agents"`
}

// Client is the remote agents API. Implementations live at the edge;
// sync logic depends only on this interface.
type Client interface {
	CreateAgent(ctx context.Context, cfg AgentConfig) (agentID string, err error)
	UpdateAgent(ctx context.Context, agentID string, cfg AgentConfig) error
}

// Fingerprint hashes an agent config's canonical YAML form. Identical
// configs always hash identically regardless of source formatting.
func Fingerprint(cfg AgentConfig) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal agent config: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// LoadLockFile reads the lockfile, returning an empty one when the
// file does not exist yet.
func LoadLockFile(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &LockFile{Agents: make(map[string]LockEntry)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}
	var lock LockFile
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("failed to parse lockfile: %w", err)
	}
	if lock.Agents == nil {
		lock.Agents = make(map[string]LockEntry)
	}
	return &lock, nil
}

// SaveLockFile writes the lockfile atomically.
func SaveLockFile(path string, lock *LockFile) error {
	data, err := yaml.Marshal(lock)
	if err != nil {
		return fmt.Errorf("failed to marshal lockfile: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	return os.Rename(tmp, path)
}

// Op is a planned sync operation.
type Op int

const (
	OpNone Op = iota
	OpCreate
	OpUpdate
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	default:
		return "up-to-date"
	}
}

// Action is one agent's planned sync step.
type Action struct {
	Name    string
	File    string
	Hash    string
	Op      Op
	AgentID string
	Config  AgentConfig
}

// Plan reads every agent file in dir and decides, against the lock,
// what each one needs. Results are sorted by name for stable output.
func Plan(dir string, lock *LockFile) ([]Action, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read agents dir: %w", err)
	}

	var actions []Action
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		var cfg AgentConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if cfg.Name == "" {
			cfg.Name = strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
		}
		hash, err := Fingerprint(cfg)
		if err != nil {
			return nil, err
		}

		action := Action{Name: cfg.Name, File: path, Hash: hash, Config: cfg}
		if entry, ok := lock.Agents[cfg.Name]; !ok {
			action.Op = OpCreate
		} else if entry.Hash != hash {
			action.Op = OpUpdate
			action.AgentID = entry.AgentID
		} else {
			action.AgentID = entry.AgentID
		}
		actions = append(actions, action)
	}

	sort.Slice(actions, func(i, j int) bool { return actions[i].Name < actions[j].Name })
	return actions, nil
}

// Result summarizes an applied sync.
type Result struct {
	Created   int
	Updated   int
	Unchanged int
}

// Apply executes a plan against the remote API and updates the lock
// in place. The caller persists the lock afterwards.
func Apply(ctx context.Context, c Client, lock *LockFile, actions []Action) (Result, error) {
	var res Result
	for _, a := range actions {
		switch a.Op {
		case OpCreate:
			id, err := c.CreateAgent(ctx, a.Config)
			if err != nil {
				return res, fmt.Errorf("failed to create agent %s: %w", a.Name, err)
			}
			lock.Agents[a.Name] = LockEntry{AgentID: id, Hash: a.Hash, SyncedAt: time.Now().UTC()}
			res.Created++
		case OpUpdate:
			if err := c.UpdateAgent(ctx, a.AgentID, a.Config); err != nil {
				return res, fmt.Errorf("failed to update agent %s: %w", a.Name, err)
			}
			lock.Agents[a.Name] = LockEntry{AgentID: a.AgentID, Hash: a.Hash, SyncedAt: time.Now().UTC()}
			res.Updated++
		default:
			res.Unchanged++
		}
	}
	return res, nil
}

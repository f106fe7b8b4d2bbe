// Package auth records which project directories may supply configuration.
// A project config can point completions at any endpoint, so a directory is
// trusted only after the user allows it, and only for the endpoints it
// declared at that time.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/NikitaCOEUR/fimcache/internal/derrors"
)

// FileName is the name of the trust store inside the data directory
const FileName = "authorized.json"

// DirAuth stores the authorization state of a directory
type DirAuth struct {
	Allowed             bool      `json:"allowed"`
	AllowedAt           time.Time `json:"allowed_at,omitempty"`
	EndpointsHash       string    `json:"endpoints_hash,omitempty"`
	EndpointsApprovedAt time.Time `json:"endpoints_approved_at,omitempty"`
}

// Auth manages project directory authorization and endpoint approval
type Auth struct {
	path       string
	mu         sync.RWMutex
	authorized map[string]*DirAuth
}

// DefaultPath returns the trust store location under XDG_DATA_HOME
func DefaultPath() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "fimcache", FileName), nil
}

// New creates a new auth manager
func New(path string) (*Auth, error) {
	a := &Auth{
		path:       path,
		authorized: make(map[string]*DirAuth),
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	// Load existing authorized paths if file exists
	if err := a.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return a, nil
}

// HashEndpoints computes a deterministic hash of a set of endpoints
func HashEndpoints(endpoints []string) string {
	sorted := append([]string(nil), endpoints...)
	sort.Strings(sorted)
	h := sha256.New()
	prev := ""
	for i, e := range sorted {
		if e == "" || (i > 0 && e == prev) {
			continue
		}
		prev = e
		fmt.Fprintf(h, "%s\n", e)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Allow trusts a directory together with the endpoints its config declares
func (a *Auth) Allow(path string, endpoints []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	normalized := normalizePath(path)
	now := time.Now()
	auth := a.authorized[normalized]
	if auth == nil {
		auth = &DirAuth{}
		a.authorized[normalized] = auth
	}
	auth.Allowed = true
	auth.AllowedAt = now
	auth.EndpointsHash = HashEndpoints(endpoints)
	auth.EndpointsApprovedAt = now
	return a.persist()
}

// ApproveEndpoints records a new endpoint set for an already allowed directory
func (a *Auth) ApproveEndpoints(path string, endpoints []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	normalized := normalizePath(path)
	auth := a.authorized[normalized]
	if auth == nil || !auth.Allowed {
		return derrors.NewAuthorizationError(normalized, "directory not authorized", nil)
	}
	auth.EndpointsHash = HashEndpoints(endpoints)
	auth.EndpointsApprovedAt = time.Now()
	return a.persist()
}

// IsAllowed checks if a directory is authorized
func (a *Auth) IsAllowed(path string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	auth := a.authorized[normalizePath(path)]
	return auth != nil && auth.Allowed, nil
}

// EndpointsApproved reports whether endpoints match the set approved for an
// allowed directory
func (a *Auth) EndpointsApproved(path string, endpoints []string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	auth := a.authorized[normalizePath(path)]
	if auth == nil || !auth.Allowed {
		return false
	}
	return auth.EndpointsHash == HashEndpoints(endpoints)
}

// GetAuth returns the DirAuth structure for a given directory path
func (a *Auth) GetAuth(path string) *DirAuth {
	a.mu.RLock()
	defer a.mu.RUnlock()

	auth := a.authorized[normalizePath(path)]
	if auth == nil {
		return nil
	}
	out := *auth
	return &out
}

// Revoke removes a directory from the authorized list
func (a *Auth) Revoke(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	normalized := normalizePath(path)
	if _, ok := a.authorized[normalized]; !ok {
		return derrors.NewNotFoundError(normalized, "directory is not authorized")
	}
	delete(a.authorized, normalized)
	return a.persist()
}

// List returns all authorized directories, sorted
func (a *Auth) List() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	paths := make([]string, 0, len(a.authorized))
	for path := range a.authorized {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Clear removes all authorized directories
func (a *Auth) Clear() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.authorized = make(map[string]*DirAuth)
	return a.persist()
}

// load reads authorized directories from disk
func (a *Auth) load() error {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return err
	}

	var auths map[string]*DirAuth
	if err := json.Unmarshal(data, &auths); err != nil {
		return fmt.Errorf("failed to parse %s: %w", a.path, err)
	}

	a.authorized = make(map[string]*DirAuth)
	for path, auth := range auths {
		if auth != nil {
			a.authorized[normalizePath(path)] = auth
		}
	}

	return nil
}

// persist writes authorized directories to disk
func (a *Auth) persist() error {
	data, err := json.MarshalIndent(a.authorized, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(a.path, data, 0600)
}

// normalizePath removes trailing slashes and cleans the path
func normalizePath(path string) string {
	cleaned := filepath.Clean(path)
	if cleaned == "/" {
		return cleaned
	}
	return strings.TrimSuffix(cleaned, "/")
}

package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/mcoot/hangchat/internal/model"
	"github.com/mcoot/hangchat/internal/session"
)

// MaxNameLength is the longest display name accepted, in runes
const MaxNameLength = 32

// ResultKind tells the caller which transition a successful Register made
type ResultKind int

const (
	// FirstClaim means the session had no name before
	FirstClaim ResultKind = iota
	// Renamed means the session swapped an existing name for a new one
	Renamed
	// Unchanged means the session asked for the name it already holds
	Unchanged
)

func (k ResultKind) String() string {
	switch k {
	case FirstClaim:
		return "first_claim"
	case Renamed:
		return "renamed"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Result describes a successful registration
type Result struct {
	Kind     ResultKind
	Name     string
	Previous string // set when Kind is Renamed
}

// Registry is the process-wide table of named sessions
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*session.Session
	byID   map[model.SessionID]string
	logger *slog.Logger
}

// New creates an empty Registry
func New(logger *slog.Logger) *Registry {
	return &Registry{
		byName: make(map[string]*session.Session),
		byID:   make(map[model.SessionID]string),
		logger: logger.With(slog.String("component", "registry")),
	}
}

// ValidateName checks that a requested display name is usable
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", model.ErrInvalidName)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: name is not valid UTF-8", model.ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: name is longer than %d characters", model.ErrInvalidName, MaxNameLength)
	}
	if strings.IndexFunc(name, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return fmt.Errorf("%w: name contains whitespace", model.ErrInvalidName)
	}
	return nil
}

// Register claims name for s. It fails with model.ErrNameTaken when another
// session holds the name.
func (r *Registry) Register(s *session.Session, name string) (Result, error) {
	if err := ValidateName(name); err != nil {
		return Result{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if holder, ok := r.byName[name]; ok {
		if holder.ID() == s.ID() {
			return Result{Kind: Unchanged, Name: name}, nil
		}
		return Result{}, fmt.Errorf("%w: %s", model.ErrNameTaken, name)
	}

	result := Result{Kind: FirstClaim, Name: name}
	if previous, ok := r.byID[s.ID()]; ok {
		delete(r.byName, previous)
		result.Kind = Renamed
		result.Previous = previous
	}

	r.byName[name] = s
	r.byID[s.ID()] = name
	s.SetName(name)

	r.logger.Info("name registered",
		slog.String("session_id", string(s.ID())),
		slog.String("name", name),
		slog.String("kind", result.Kind.String()),
		slog.Int("total_names", len(r.byName)))

	return result, nil
}

// Unregister removes the session's entry. Unknown sessions are ignored.
func (r *Registry) Unregister(s *session.Session) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.byID[s.ID()]
	if !ok {
		return "", false
	}
	delete(r.byID, s.ID())
	delete(r.byName, name)
	s.SetName("")

	r.logger.Info("name released",
		slog.String("session_id", string(s.ID())),
		slog.String("name", name),
		slog.Int("total_names", len(r.byName)))

	return name, true
}

// List returns a sorted snapshot of the registered names
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sessions returns a snapshot of every registered session
func (r *Registry) Sessions() []*session.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*session.Session, 0, len(r.byName))
	for _, s := range r.byName {
		sessions = append(sessions, s)
	}
	return sessions
}

// Lookup returns the session holding name, or nil
func (r *Registry) Lookup(name string) *session.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// NameOf returns the registered name of s, if any
func (r *Registry) NameOf(s *session.Session) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byID[s.ID()]
	return name, ok
}

// Len returns the number of registered sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

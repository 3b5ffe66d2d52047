package policy

import (
	"fmt"
	"sync"
	"time"

	"nsguard/internal/shared/observability"
)

// Loader produces a fresh policy from the source.
type Loader func() (*Policy, error)

// DiagnosticSink receives human-readable lifecycle messages. A nil sink drops them.
type DiagnosticSink func(message string)

type Option func(*Store)

func WithDiagnostics(sink DiagnosticSink) Option {
	return func(s *Store) { s.sink = sink }
}

// WithClock replaces the time source used to stamp loads.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store serves the currently effective policy. It initialises lazily on first
// access and reloads only through Refresh. All methods hold the same mutex for
// their whole duration, so no caller observes a partially applied load.
type Store struct {
	source Source
	load   Loader
	sink   DiagnosticSink
	now    func() time.Time

	mu           sync.Mutex
	initialized  bool
	sourceExists bool
	lastLoad     time.Time
	policy       *Policy
	loadErr      error
}

func NewStore(source Source, load Loader, opts ...Option) *Store {
	s := &Store{
		source: source,
		load:   load,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFileStore creates a Store for the TOML policy document at path.
func NewFileStore(path string, opts ...Option) *Store {
	return NewStore(NewFileSource(path), func() (*Policy, error) { return LoadFile(path) }, opts...)
}

func (s *Store) Path() string {
	return s.source.Path()
}

// Policy returns the last successfully loaded policy, or nil.
func (s *Store) Policy() *Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureInitialized()
	return s.policy
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureInitialized()
	return DeriveState(s.sourceExists, s.loadErr, s.policy)
}

// LastError returns the error of the most recent failed load, or nil.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureInitialized()
	return s.loadErr
}

// Snapshot returns policy, state and error from one consistent view.
func (s *Store) Snapshot() (*Policy, State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureInitialized()
	return s.policy, DeriveState(s.sourceExists, s.loadErr, s.policy), s.loadErr
}

// Refresh reloads the policy when the source is new or changed. Failures are
// stored, never returned; a failed reload keeps the previous policy.
func (s *Store) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
	s.refresh()
}

func (s *Store) ensureInitialized() {
	if s.initialized {
		return
	}
	s.initialized = true
	s.refresh()
}

func (s *Store) refresh() {
	path := s.source.Path()
	s.sourceExists = s.source.Exists()
	if !s.sourceExists {
		s.loadErr = nil
		s.policy = nil
		s.emit(fmt.Sprintf("Policy file '%s' not found.", path))
		observability.PolicyState.Set(float64(StateNoConfigSource))
		return
	}

	if s.policy != nil && !s.lastLoad.Before(s.source.LastModified()) {
		return
	}

	if s.policy == nil {
		s.emit(fmt.Sprintf("Loading policy file '%s' for the first time.", path))
	} else {
		s.emit(fmt.Sprintf("Reloading modified policy file '%s'.", path))
	}

	// Stamp before loading so an edit made during a slow load is seen next time.
	s.lastLoad = s.now()
	s.loadErr = nil

	loaded, err := s.safeLoad()
	if err != nil {
		s.loadErr = err
		s.emit(fmt.Sprintf("Policy file '%s' exception: %v", path, err))
		observability.PolicyLoadsTotal.WithLabelValues("error").Inc()
		observability.PolicyState.Set(float64(StateConfigError))
		return
	}
	s.policy = loaded
	observability.PolicyLoadsTotal.WithLabelValues("ok").Inc()
	if loaded != nil {
		observability.PolicyState.Set(float64(DeriveState(true, nil, loaded)))
	}

	if s.sink != nil {
		s.emit(fmt.Sprintf("Policy file '%s' loaded.", path))
		if loaded != nil {
			for _, line := range loaded.Dump() {
				s.emit("  " + line)
			}
		}
	}
}

func (s *Store) safeLoad() (p *Policy, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("policy loader panicked: %v", r)
		}
	}()
	return s.load()
}

func (s *Store) emit(message string) {
	if s.sink != nil {
		s.sink(message)
	}
}

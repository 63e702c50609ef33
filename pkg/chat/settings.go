package chat

import "sync"

// SessionConfig is the set of per-session toggles attached to every send.
type SessionConfig struct {
	UseRetrievalAugmentation bool
	UseMainBackend           bool
	ProviderName             string // empty = backend default
}

// DefaultSessionConfig matches a freshly opened chat view: retrieval on, main
// backend, default provider.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		UseRetrievalAugmentation: true,
		UseMainBackend:           true,
	}
}

// Settings holds the live SessionConfig. It is never persisted; the dispatcher
// reads it at the moment Send is called.
type Settings struct {
	mu  sync.RWMutex
	cfg SessionConfig
}

func NewSettings() *Settings {
	return &Settings{cfg: DefaultSessionConfig()}
}

func (s *Settings) Snapshot() SessionConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Settings) SetUseRetrieval(on bool) {
	s.mu.Lock()
	s.cfg.UseRetrievalAugmentation = on
	s.mu.Unlock()
}

func (s *Settings) SetUseMainBackend(on bool) {
	s.mu.Lock()
	s.cfg.UseMainBackend = on
	s.mu.Unlock()
}

func (s *Settings) SetProvider(name string) {
	s.mu.Lock()
	s.cfg.ProviderName = name
	s.mu.Unlock()
}

func (s *Settings) Reset() {
	s.mu.Lock()
	s.cfg = DefaultSessionConfig()
	s.mu.Unlock()
}

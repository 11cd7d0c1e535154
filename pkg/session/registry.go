// Copyright 2025 Alibaba Group Holding Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openbridge/sftpgated/pkg/log"
	"github.com/openbridge/sftpgated/pkg/remote"
)

var (
	// ErrInvalidToken is returned for unknown tokens and ownership
	// mismatches alike, so callers cannot probe foreign sessions.
	ErrInvalidToken = errors.New("invalid session token")

	// ErrSessionExpired is returned once a session passed its expiry; the
	// client must re-authenticate to obtain a new one.
	ErrSessionExpired = errors.New("session expired")
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive     Status = "active"
	StatusIdle       Status = "idle"
	StatusExpired    Status = "expired"
	StatusTerminated Status = "terminated"
)

// Conn is the live remote link a session owns. *remote.Link satisfies it;
// tests substitute fakes.
type Conn interface {
	Exec() *remote.Executor
	IsAlive() bool
	Close() error
}

// DialFunc opens a new link for a session. Injected so the registry can be
// exercised without a network.
type DialFunc func(cfg remote.DialConfig) (Conn, error)

// Session binds an opaque token to exactly one live link plus metadata.
// The link is owned exclusively by this entry and never shared.
type Session struct {
	Token        string
	ConnectionID string
	OwnerID      string
	Target       remote.Target
	AuthMode     remote.AuthMode

	conn Conn

	mu             sync.Mutex
	status         Status
	idleAfter      time.Duration
	createdAt      time.Time
	lastActivityAt time.Time
	expiresAt      time.Time
}

// Exec exposes the file operation executor of the owned link.
func (s *Session) Exec() *remote.Executor {
	return s.conn.Exec()
}

// Status reports the lifecycle state. An active session with no activity
// for half the eviction threshold reads as idle until the next touch.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusActive && s.idleAfter > 0 && time.Since(s.lastActivityAt) >= s.idleAfter {
		return StatusIdle
	}
	return s.status
}

func (s *Session) CreatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createdAt
}

func (s *Session) LastActivityAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivityAt
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// Registry is the only cross-request shared mutable state: a map from
// session token to live session. It is an explicitly constructed instance,
// never a package singleton.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	idleTimeout time.Duration
	dial        DialFunc
}

// NewRegistry builds a registry with the given idle eviction threshold and
// dial function.
func NewRegistry(idleTimeout time.Duration, dial DialFunc) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		idleTimeout: idleTimeout,
		dial:        dial,
	}
}

// Create validates credentials, opens a link and registers a new session.
// Credentials live only for the duration of the handshake.
func (r *Registry) Create(connectionID, ownerID string, cfg remote.DialConfig) (*Session, error) {
	if err := remote.ValidateCredentials(cfg.AuthMode, cfg.Credentials); err != nil {
		return nil, err
	}

	conn, err := r.dial(cfg)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &Session{
		Token:          uuid.NewString(),
		ConnectionID:   connectionID,
		OwnerID:        ownerID,
		Target:         cfg.Target,
		AuthMode:       cfg.AuthMode,
		conn:           conn,
		status:         StatusActive,
		idleAfter:      r.idleTimeout / 2,
		createdAt:      now,
		lastActivityAt: now,
		expiresAt:      now.Add(r.idleTimeout),
	}

	r.mu.Lock()
	r.sessions[sess.Token] = sess
	r.mu.Unlock()

	log.Info("session %s opened to %s@%s for connection %s", shortToken(sess.Token), cfg.Target.Username, cfg.Target.Host, connectionID)
	return sess, nil
}

// Resolve validates token and ownership, checks expiry and refreshes the
// activity clock. An expired session is torn down on the spot.
func (r *Registry) Resolve(token, ownerID string) (*Session, error) {
	r.mu.RLock()
	sess, ok := r.sessions[token]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidToken
	}
	if sess.OwnerID != ownerID {
		return nil, ErrInvalidToken
	}

	now := time.Now()
	sess.mu.Lock()
	if sess.status == StatusTerminated {
		sess.mu.Unlock()
		return nil, ErrSessionExpired
	}
	if sess.status == StatusExpired || now.After(sess.expiresAt) {
		sess.status = StatusExpired
		sess.mu.Unlock()
		r.Close(token)
		return nil, ErrSessionExpired
	}
	sess.lastActivityAt = now
	sess.expiresAt = now.Add(r.idleTimeout)
	sess.mu.Unlock()

	return sess, nil
}

// KeepAlive extends the session expiry without a file operation. The new
// expiry is never earlier than the previous one.
func (r *Registry) KeepAlive(token, ownerID string) (time.Time, error) {
	sess, err := r.Resolve(token, ownerID)
	if err != nil {
		return time.Time{}, err
	}
	return sess.ExpiresAt(), nil
}

// Close tears a session down: socket first, map entry second. The entry is
// marked terminated before the socket closes, so a concurrent Resolve can
// never hand out a dead link. Idempotent; unknown tokens are a no-op.
func (r *Registry) Close(token string) {
	r.mu.RLock()
	sess, ok := r.sessions[token]
	r.mu.RUnlock()
	if !ok {
		return
	}

	sess.mu.Lock()
	if sess.status == StatusTerminated {
		sess.mu.Unlock()
		return
	}
	sess.status = StatusTerminated
	sess.mu.Unlock()

	if err := sess.conn.Close(); err != nil {
		log.Warn("session %s: close link: %v", shortToken(token), err)
	}

	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
	log.Info("session %s closed", shortToken(token))
}

// Expire marks a session dead (e.g. after a failed liveness probe) and
// evicts it. The closed socket guarantees no orphaned connection remains.
func (r *Registry) Expire(token string) {
	r.mu.RLock()
	sess, ok := r.sessions[token]
	r.mu.RUnlock()
	if !ok {
		return
	}
	sess.mu.Lock()
	if sess.status != StatusTerminated {
		sess.status = StatusExpired
	}
	sess.mu.Unlock()
	r.Close(token)
}

// Sweep evicts sessions idle past the threshold, returning how many were
// removed.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idleTimeout)

	r.mu.RLock()
	var stale []string
	for token, sess := range r.sessions {
		if sess.LastActivityAt().Before(cutoff) {
			stale = append(stale, token)
		}
	}
	r.mu.RUnlock()

	for _, token := range stale {
		log.Info("session %s evicted: idle past %s", shortToken(token), r.idleTimeout)
		r.Expire(token)
	}
	return len(stale)
}

// Tokens snapshots the currently registered tokens.
func (r *Registry) Tokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tokens := make([]string, 0, len(r.sessions))
	for token := range r.sessions {
		tokens = append(tokens, token)
	}
	return tokens
}

func (r *Registry) lookup(token string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[token]
	return sess, ok
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll tears down every session; used on shutdown.
func (r *Registry) CloseAll() {
	for _, token := range r.Tokens() {
		r.Close(token)
	}
}

func shortToken(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}

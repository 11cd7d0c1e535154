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
	"time"

	"github.com/openbridge/sftpgated/pkg/log"
	"github.com/openbridge/sftpgated/pkg/util/safego"
)

// Monitor keeps idle links from being dropped by the remote side and
// detects dead ones. A failed probe expires the session rather than
// retrying: a dead link is not recoverable in place.
type Monitor struct {
	registry *Registry
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewMonitor builds a monitor probing every session of the registry on the
// given interval.
func NewMonitor(registry *Registry, interval time.Duration) *Monitor {
	return &Monitor{
		registry: registry,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the probe loop in the background.
func (m *Monitor) Start() {
	safego.Go(m.run)
}

// Stop halts the loop and waits for it to exit. It does not close sessions.
func (m *Monitor) Stop() {
	close(m.stop)
	<-m.done
}

func (m *Monitor) run() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.tick(now)
		}
	}
}

func (m *Monitor) tick(now time.Time) {
	for _, token := range m.registry.Tokens() {
		sess, ok := m.registry.lookup(token)
		if !ok {
			continue
		}
		if !sess.conn.IsAlive() {
			log.Warn("session %s: liveness probe failed, expiring", shortToken(token))
			m.registry.Expire(token)
		}
	}
	if evicted := m.registry.Sweep(now); evicted > 0 {
		log.Info("expiry sweep evicted %d session(s)", evicted)
	}
}

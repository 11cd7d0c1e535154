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

package flag

import "time"

var (
	// ServerPort controls the HTTP listener port.
	ServerPort int

	// ServerLogLevel controls the server log verbosity.
	ServerLogLevel int

	// ServerAccessToken guards API entrypoints when set.
	ServerAccessToken string

	// DataPath is the directory holding the connection database.
	DataPath string

	// SessionIdleTimeout evicts sessions idle past this threshold.
	SessionIdleTimeout time.Duration

	// KeepAliveInterval paces the liveness probes of open links.
	KeepAliveInterval time.Duration

	// ConnectTimeout bounds a whole SSH connect sequence.
	ConnectTimeout time.Duration

	// HostKeyPolicy is "strict" or "accept-any".
	HostKeyPolicy string

	// KnownHostsPath is the known_hosts file consulted under strict policy.
	KnownHostsPath string

	// ApiGracefulShutdownTimeout waits before tearing down live sessions.
	ApiGracefulShutdownTimeout time.Duration
)

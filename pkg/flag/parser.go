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

import (
	"flag"
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/openbridge/sftpgated/pkg/log"
)

const (
	dataPathEnv                = "SFTPGATED_DATA_PATH"
	accessTokenEnv             = "SFTPGATED_ACCESS_TOKEN"
	idleTimeoutEnv             = "SFTPGATED_SESSION_IDLE_TIMEOUT"
	knownHostsEnv              = "SFTPGATED_KNOWN_HOSTS"
	gracefulShutdownTimeoutEnv = "SFTPGATED_API_GRACE_SHUTDOWN"
)

// InitFlags registers CLI flags and env overrides.
func InitFlags() {
	// Set default values
	ServerPort = 8422
	ServerLogLevel = 6
	ServerAccessToken = ""
	DataPath = "/var/lib/sftpgated"
	SessionIdleTimeout = 10 * time.Minute
	KeepAliveInterval = 30 * time.Second
	ConnectTimeout = 30 * time.Second
	HostKeyPolicy = "strict"
	KnownHostsPath = defaultKnownHosts()
	ApiGracefulShutdownTimeout = time.Second * 1

	// First, set default values from environment variables
	if dataFromEnv := os.Getenv(dataPathEnv); dataFromEnv != "" {
		DataPath = dataFromEnv
	}
	if tokenFromEnv := os.Getenv(accessTokenEnv); tokenFromEnv != "" {
		ServerAccessToken = tokenFromEnv
	}
	if knownHostsFromEnv := os.Getenv(knownHostsEnv); knownHostsFromEnv != "" {
		KnownHostsPath = knownHostsFromEnv
	}
	if idleFromEnv := os.Getenv(idleTimeoutEnv); idleFromEnv != "" {
		duration, err := time.ParseDuration(idleFromEnv)
		if err != nil {
			stdlog.Panicf("Failed to parse session idle timeout from env: %v", err)
		}
		SessionIdleTimeout = duration
	}
	if graceShutdownTimeout := os.Getenv(gracefulShutdownTimeoutEnv); graceShutdownTimeout != "" {
		duration, err := time.ParseDuration(graceShutdownTimeout)
		if err != nil {
			stdlog.Panicf("Failed to parse graceful shutdown timeout from env: %v", err)
		}
		ApiGracefulShutdownTimeout = duration
	}

	// Then define flags with current values as defaults
	flag.IntVar(&ServerPort, "port", ServerPort, "Server listening port (default: 8422)")
	flag.IntVar(&ServerLogLevel, "log-level", ServerLogLevel, "Server log level (0=LevelEmergency, 1=LevelAlert, 2=LevelCritical, 3=LevelError, 4=LevelWarning, 5=LevelNotice, 6=LevelInformational, 7=LevelDebug, default: 6)")
	flag.StringVar(&ServerAccessToken, "access-token", ServerAccessToken, "Server access token for API authentication")
	flag.StringVar(&DataPath, "data-path", DataPath, "Directory for the connection database")
	flag.DurationVar(&SessionIdleTimeout, "session-idle-timeout", SessionIdleTimeout, "Idle duration after which a session is evicted (default: 10m)")
	flag.DurationVar(&KeepAliveInterval, "keepalive-interval", KeepAliveInterval, "Interval between liveness probes of open links (default: 30s)")
	flag.DurationVar(&ConnectTimeout, "connect-timeout", ConnectTimeout, "Timeout for a whole SSH connect sequence (default: 30s)")
	flag.StringVar(&HostKeyPolicy, "hostkey-policy", HostKeyPolicy, "Host key verification policy: strict or accept-any (default: strict)")
	flag.StringVar(&KnownHostsPath, "known-hosts", KnownHostsPath, "known_hosts file used under the strict host key policy")
	flag.DurationVar(&ApiGracefulShutdownTimeout, "graceful-shutdown-timeout", ApiGracefulShutdownTimeout, "API graceful shutdown timeout duration (default: 1s)")

	// Parse flags - these will override environment variables if provided
	flag.Parse()

	if HostKeyPolicy != "strict" && HostKeyPolicy != "accept-any" {
		stdlog.Panicf("Invalid hostkey-policy %q: must be strict or accept-any", HostKeyPolicy)
	}

	// Log final values
	log.Info("Data path is: %s", DataPath)
	log.Info("Session idle timeout is: %s", SessionIdleTimeout)
	log.Info("Host key policy is: %s", HostKeyPolicy)
}

func defaultKnownHosts() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/ssh/ssh_known_hosts"
	}
	return filepath.Join(home, ".ssh", "known_hosts")
}

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

package remote

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/openbridge/sftpgated/pkg/log"
)

// AuthMode selects how the remote host is authenticated.
type AuthMode string

const (
	AuthPassword             AuthMode = "password"
	AuthPrivateKey           AuthMode = "private_key"
	AuthPrivateKeyPassphrase AuthMode = "private_key_passphrase"
)

// HostKeyPolicy controls host key verification on connect.
type HostKeyPolicy string

const (
	HostKeyStrict    HostKeyPolicy = "strict"
	HostKeyAcceptAny HostKeyPolicy = "accept-any"
)

// Target identifies the remote endpoint of a link.
type Target struct {
	Host      string
	Port      int
	Username  string
	ProxyJump string
}

func (t Target) addr() string {
	port := t.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(port))
}

// Credentials carries decrypted secret material for one connect attempt.
// It is never stored past the handshake.
type Credentials struct {
	Password   string
	PrivateKey []byte
	Passphrase string
}

// DialConfig is everything needed to open one link.
type DialConfig struct {
	Target         Target
	AuthMode       AuthMode
	Credentials    Credentials
	Timeout        time.Duration
	HostKeyPolicy  HostKeyPolicy
	KnownHostsPath string
}

// ValidateCredentials rejects incomplete secret material for the declared
// auth mode before any network I/O is attempted.
func ValidateCredentials(mode AuthMode, creds Credentials) error {
	switch mode {
	case AuthPassword:
		if creds.Password == "" {
			return validationErr("connect", "", "password auth requires a password")
		}
	case AuthPrivateKey:
		if len(creds.PrivateKey) == 0 {
			return validationErr("connect", "", "key auth requires a private key")
		}
	case AuthPrivateKeyPassphrase:
		if len(creds.PrivateKey) == 0 {
			return validationErr("connect", "", "key auth requires a private key")
		}
		if creds.Passphrase == "" {
			return validationErr("connect", "", "passphrase auth requires a passphrase")
		}
	default:
		return validationErr("connect", "", "unknown auth mode %q", mode)
	}
	return nil
}

// Link owns exactly one TCP socket, one authenticated SSH session and one
// SFTP channel. The channel cannot be multiplexed, so every command issued
// through the link holds its mutex.
type Link struct {
	mu      sync.Mutex
	ssh     *ssh.Client
	bastion *ssh.Client
	sftp    *sftp.Client
	exec    *Executor
	closed  bool
}

type dialOutcome struct {
	link *Link
	err  error
}

// Dial opens a link to the target. The timeout bounds the whole sequence
// (TCP connect, handshake, auth, SFTP channel open); on expiry the
// partially-opened connection is released in the background.
func Dial(cfg DialConfig) (*Link, error) {
	if err := ValidateCredentials(cfg.AuthMode, cfg.Credentials); err != nil {
		return nil, err
	}

	clientCfg, err := buildClientConfig(cfg)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	done := make(chan dialOutcome, 1)
	go func() {
		done <- dialBlocking(cfg, clientCfg, timeout)
	}()

	// The library timeout covers the TCP dial only, so the whole sequence
	// races against its own timer.
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, classifyDial(out.err)
		}
		return out.link, nil
	case <-timer.C:
		go func() {
			if out := <-done; out.link != nil {
				_ = out.link.Close()
			}
		}()
		return nil, &Error{Kind: KindTimeout, Op: "connect", Err: fmt.Errorf("connect to %s timed out after %s", cfg.Target.addr(), timeout)}
	}
}

func dialBlocking(cfg DialConfig, clientCfg *ssh.ClientConfig, timeout time.Duration) dialOutcome {
	var bastion, client *ssh.Client
	var err error

	if cfg.Target.ProxyJump != "" {
		jump := cfg.Target
		jump.Host, jump.Port = splitJumpHost(cfg.Target.ProxyJump)
		jump.ProxyJump = ""

		bastion, err = ssh.Dial("tcp", jump.addr(), clientCfg)
		if err != nil {
			return dialOutcome{err: fmt.Errorf("proxy jump %s: %w", jump.addr(), err)}
		}

		conn, err := bastion.Dial("tcp", cfg.Target.addr())
		if err != nil {
			_ = bastion.Close()
			return dialOutcome{err: fmt.Errorf("proxy jump to %s: %w", cfg.Target.addr(), err)}
		}
		c, chans, reqs, err := ssh.NewClientConn(conn, cfg.Target.addr(), clientCfg)
		if err != nil {
			_ = conn.Close()
			_ = bastion.Close()
			return dialOutcome{err: err}
		}
		client = ssh.NewClient(c, chans, reqs)
	} else {
		client, err = ssh.Dial("tcp", cfg.Target.addr(), clientCfg)
		if err != nil {
			return dialOutcome{err: err}
		}
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		_ = client.Close()
		if bastion != nil {
			_ = bastion.Close()
		}
		return dialOutcome{err: fmt.Errorf("open sftp channel: %w", err)}
	}

	l := &Link{ssh: client, bastion: bastion, sftp: sftpClient}
	l.exec = newExecutor(&sftpFS{c: sftpClient}, &l.mu)
	return dialOutcome{link: l}
}

func buildClientConfig(cfg DialConfig) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	switch cfg.AuthMode {
	case AuthPassword:
		auth = append(auth, ssh.Password(cfg.Credentials.Password))
	case AuthPrivateKey:
		signer, err := ssh.ParsePrivateKey(cfg.Credentials.PrivateKey)
		if err != nil {
			return nil, validationErr("connect", "", "parse private key: %v", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	case AuthPrivateKeyPassphrase:
		signer, err := ssh.ParsePrivateKeyWithPassphrase(cfg.Credentials.PrivateKey, []byte(cfg.Credentials.Passphrase))
		if err != nil {
			return nil, validationErr("connect", "", "parse private key: %v", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey() // nolint:gosec
	if cfg.HostKeyPolicy != HostKeyAcceptAny {
		cb, err := knownhosts.New(cfg.KnownHostsPath)
		if err != nil {
			return nil, validationErr("connect", "", "load known_hosts %s: %v", cfg.KnownHostsPath, err)
		}
		hostKeyCallback = cb
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ssh.ClientConfig{
		User:            cfg.Target.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}, nil
}

func splitJumpHost(jump string) (string, int) {
	host, portStr, err := net.SplitHostPort(jump)
	if err != nil {
		return jump, 22
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return jump, 22
	}
	return host, port
}

// Exec returns the file operation executor bound to this link's channel.
func (l *Link) Exec() *Executor {
	return l.exec
}

// IsAlive issues a cheap no-op over the SFTP channel.
func (l *Link) IsAlive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	_, err := l.sftp.Getwd()
	return err == nil
}

// Close releases the channel and sockets. Safe to call multiple times and
// resilient to an already-dead transport.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	if err := l.sftp.Close(); err != nil && !errors.Is(err, io.EOF) {
		log.Debug("close sftp channel: %v", err)
	}
	err := l.ssh.Close()
	if l.bastion != nil {
		_ = l.bastion.Close()
	}
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// sftpFS adapts *sftp.Client to the executor's FS interface.
type sftpFS struct {
	c *sftp.Client
}

func (s *sftpFS) ReadDir(path string) ([]os.FileInfo, error) { return s.c.ReadDir(path) }
func (s *sftpFS) Stat(path string) (os.FileInfo, error)      { return s.c.Stat(path) }
func (s *sftpFS) Lstat(path string) (os.FileInfo, error)     { return s.c.Lstat(path) }
func (s *sftpFS) Mkdir(path string) error                    { return s.c.Mkdir(path) }
func (s *sftpFS) Remove(path string) error                   { return s.c.Remove(path) }
func (s *sftpFS) RemoveAll(path string) error                { return s.c.RemoveAll(path) }
func (s *sftpFS) Chmod(path string, mode os.FileMode) error  { return s.c.Chmod(path, mode) }

func (s *sftpFS) Open(path string) (io.ReadCloser, error) {
	return s.c.Open(path)
}

func (s *sftpFS) Create(path string) (io.WriteCloser, error) {
	return s.c.Create(path)
}

func (s *sftpFS) Rename(oldpath, newpath string) error {
	// POSIX rename crosses directories; fall back for servers without the
	// posix-rename@openssh.com extension.
	if err := s.c.PosixRename(oldpath, newpath); err == nil {
		return nil
	}
	return s.c.Rename(oldpath, newpath)
}

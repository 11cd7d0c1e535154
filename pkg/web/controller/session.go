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

package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openbridge/sftpgated/pkg/remote"
	"github.com/openbridge/sftpgated/pkg/session"
	"github.com/openbridge/sftpgated/pkg/store"
	"github.com/openbridge/sftpgated/pkg/web/model"
)

// DialSettings carries the connect policy fixed at process start.
type DialSettings struct {
	ConnectTimeout time.Duration
	HostKeyPolicy  remote.HostKeyPolicy
	KnownHostsPath string
}

// SessionController drives the session lifecycle for one connection.
type SessionController struct {
	*basicController
	store    *store.Store
	registry *session.Registry
	dial     DialSettings
}

func NewSessionController(ctx *gin.Context, st *store.Store, reg *session.Registry, dial DialSettings) *SessionController {
	return &SessionController{
		basicController: newBasicController(ctx),
		store:           st,
		registry:        reg,
		dial:            dial,
	}
}

// OwnerID identifies the logical owner of a session: the declared client id
// when present, the peer address otherwise.
func OwnerID(ctx *gin.Context) string {
	if id := ctx.GetHeader(model.ClientIDHeader); id != "" {
		return id
	}
	return ctx.ClientIP()
}

// Create resolves the stored credentials for the connection, opens a link
// and returns a fresh session token. Decrypted material lives only for the
// duration of this call.
func (c *SessionController) Create() {
	conn, err := c.store.GetConnection(c.ctx.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.RespondError(http.StatusNotFound, model.ErrorCodeConnectionMissing, "connection not found")
			return
		}
		c.RespondError(http.StatusInternalServerError, model.ErrorCodeUnknown, err.Error())
		return
	}

	secret, err := c.store.DecryptSecret(conn.Secret)
	if err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeUnknown,
			fmt.Sprintf("error unsealing credentials. %v", err),
		)
		return
	}

	cfg := remote.DialConfig{
		Target: remote.Target{
			Host:      conn.Host,
			Port:      conn.Port,
			Username:  conn.Username,
			ProxyJump: conn.ProxyJump,
		},
		AuthMode: remote.AuthMode(conn.AuthType),
		Credentials: remote.Credentials{
			Password:   secret.Password,
			PrivateKey: []byte(secret.PrivateKey),
			Passphrase: secret.Passphrase,
		},
		Timeout:        c.dial.ConnectTimeout,
		HostKeyPolicy:  c.dial.HostKeyPolicy,
		KnownHostsPath: c.dial.KnownHostsPath,
	}

	sess, err := c.registry.Create(conn.ID, OwnerID(c.ctx), cfg)
	if err != nil {
		// A connect failure the classifier could not pin down still gets a
		// connect-specific code, not the generic remote one.
		if remote.KindOf(err) == remote.KindUnknown {
			c.RespondError(http.StatusBadGateway, model.ErrorCodeConnectFailed, err.Error())
			return
		}
		c.RespondMappedError(err)
		return
	}

	c.RespondSuccess(model.CreateSessionResponse{
		SessionToken: sess.Token,
		Connection:   connectionSummary(conn),
	})
}

// Get returns metadata of the caller's session.
func (c *SessionController) Get() {
	sess, err := c.resolve()
	if err != nil {
		c.RespondMappedError(err)
		return
	}
	c.RespondSuccess(sessionInfo(sess))
}

// KeepAlive extends the session expiry without touching the remote side.
func (c *SessionController) KeepAlive() {
	expiresAt, err := c.registry.KeepAlive(c.ctx.GetHeader(model.SessionTokenHeader), OwnerID(c.ctx))
	if err != nil {
		c.RespondMappedError(err)
		return
	}
	c.RespondSuccess(model.KeepAliveResponse{ExpiresAt: expiresAt})
}

// Close tears the session down; closing an unknown or already-closed token
// succeeds.
func (c *SessionController) Close() {
	c.registry.Close(c.ctx.GetHeader(model.SessionTokenHeader))
	c.RespondSuccess(nil)
}

func (c *SessionController) resolve() (*session.Session, error) {
	token := c.ctx.GetHeader(model.SessionTokenHeader)
	if token == "" {
		return nil, session.ErrInvalidToken
	}
	return c.registry.Resolve(token, OwnerID(c.ctx))
}

func sessionInfo(sess *session.Session) model.SessionInfo {
	return model.SessionInfo{
		ConnectionID:   sess.ConnectionID,
		Status:         string(sess.Status()),
		Host:           sess.Target.Host,
		Username:       sess.Target.Username,
		CreatedAt:      sess.CreatedAt(),
		LastActivityAt: sess.LastActivityAt(),
		ExpiresAt:      sess.ExpiresAt(),
	}
}

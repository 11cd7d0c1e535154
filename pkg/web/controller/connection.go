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

	"github.com/gin-gonic/gin"

	"github.com/openbridge/sftpgated/pkg/log"
	"github.com/openbridge/sftpgated/pkg/store"
	"github.com/openbridge/sftpgated/pkg/web/model"
)

// ConnectionController manages stored remote endpoints.
type ConnectionController struct {
	*basicController
	store *store.Store
}

func NewConnectionController(ctx *gin.Context, st *store.Store) *ConnectionController {
	return &ConnectionController{basicController: newBasicController(ctx), store: st}
}

// Create registers a connection, encrypting the secret material at rest.
func (c *ConnectionController) Create() {
	var request model.CreateConnectionRequest
	if err := c.bindJSON(&request); err != nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidRequest,
			fmt.Sprintf("error parsing request, MAYBE invalid body format. %v", err),
		)
		return
	}
	if err := request.Validate(); err != nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeValidationFailed,
			fmt.Sprintf("invalid connection request. %v", err),
		)
		return
	}

	secret, err := c.store.EncryptSecret(store.SecretMaterial{
		Password:   request.Password,
		PrivateKey: request.PrivateKey,
		Passphrase: request.Passphrase,
	})
	if err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeUnknown,
			fmt.Sprintf("error sealing credentials. %v", err),
		)
		return
	}

	conn := &store.Connection{
		Name:      request.Name,
		Host:      request.Host,
		Port:      request.Port,
		Username:  request.Username,
		AuthType:  request.AuthType,
		Secret:    secret,
		ProxyJump: request.ProxyJump,
	}
	if err := c.store.CreateConnection(conn); err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeUnknown,
			fmt.Sprintf("error storing connection. %v", err),
		)
		return
	}

	log.Info("%s", connectionAudit(conn))
	c.RespondSuccess(connectionSummary(conn))
}

// List returns all stored connections, secrets omitted.
func (c *ConnectionController) List() {
	conns, err := c.store.ListConnections()
	if err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeUnknown,
			fmt.Sprintf("error listing connections. %v", err),
		)
		return
	}

	resp := make([]model.ConnectionSummary, 0, len(conns))
	for i := range conns {
		resp = append(resp, connectionSummary(&conns[i]))
	}
	c.RespondSuccess(resp)
}

// Get returns one stored connection, secret omitted.
func (c *ConnectionController) Get() {
	conn, err := c.store.GetConnection(c.ctx.Param("id"))
	if err != nil {
		c.respondStoreError(err)
		return
	}
	c.RespondSuccess(connectionSummary(conn))
}

// Delete removes a stored connection; idempotent.
func (c *ConnectionController) Delete() {
	if err := c.store.DeleteConnection(c.ctx.Param("id")); err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeUnknown,
			fmt.Sprintf("error deleting connection. %v", err),
		)
		return
	}
	c.RespondSuccess(nil)
}

func (c *ConnectionController) respondStoreError(err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.RespondError(http.StatusNotFound, model.ErrorCodeConnectionMissing, "connection not found")
		return
	}
	c.RespondError(http.StatusInternalServerError, model.ErrorCodeUnknown, err.Error())
}

// connectionAudit is the log line for a newly stored connection. It names
// the auth type only; credential material never reaches the log.
func connectionAudit(conn *store.Connection) string {
	return fmt.Sprintf("connection %s registered: %s@%s (auth %s)", conn.ID, conn.Username, conn.Host, conn.AuthType)
}

func connectionSummary(conn *store.Connection) model.ConnectionSummary {
	return model.ConnectionSummary{
		ID:        conn.ID,
		Name:      conn.Name,
		Host:      conn.Host,
		Port:      conn.Port,
		Username:  conn.Username,
		AuthType:  conn.AuthType,
		ProxyJump: conn.ProxyJump,
		CreatedAt: conn.CreatedAt,
	}
}

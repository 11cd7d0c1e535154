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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openbridge/sftpgated/pkg/remote"
	"github.com/openbridge/sftpgated/pkg/session"
	"github.com/openbridge/sftpgated/pkg/web/model"
)

type basicController struct {
	ctx *gin.Context
}

func newBasicController(ctx *gin.Context) *basicController {
	return &basicController{ctx: ctx}
}

func (c *basicController) RespondError(status int, code model.ErrorCode, message ...string) {
	resp := model.ErrorResponse{
		Code:    code,
		Message: "",
	}
	if len(message) > 0 {
		resp.Message = message[0]
	}
	c.ctx.JSON(status, resp)
}

func (c *basicController) RespondSuccess(data any) {
	if data == nil {
		c.ctx.Status(http.StatusOK)
		return
	}
	c.ctx.JSON(http.StatusOK, data)
}

func (c *basicController) bindJSON(target any) error {
	decoder := json.NewDecoder(c.ctx.Request.Body)
	return decoder.Decode(target)
}

// RespondMappedError translates session and remote errors into their stable
// code and status. Everything the remote boundary classified keeps its kind;
// unclassified failures surface as REMOTE_ERROR with the original message.
func (c *basicController) RespondMappedError(err error) {
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		c.RespondError(http.StatusUnauthorized, model.ErrorCodeSessionExpired, "session expired, re-authenticate to continue")
		return
	case errors.Is(err, session.ErrInvalidToken):
		c.RespondError(http.StatusUnauthorized, model.ErrorCodeSessionRequired, "missing or invalid session token")
		return
	}

	status, code := http.StatusInternalServerError, model.ErrorCodeRemoteError
	switch remote.KindOf(err) {
	case remote.KindValidation:
		status, code = http.StatusBadRequest, model.ErrorCodeValidationFailed
	case remote.KindAuth:
		status, code = http.StatusUnauthorized, model.ErrorCodeAuthFailed
	case remote.KindUnreachable:
		status, code = http.StatusBadGateway, model.ErrorCodeHostUnreachable
	case remote.KindRefused:
		status, code = http.StatusBadGateway, model.ErrorCodeConnectionRefused
	case remote.KindTimeout:
		status, code = http.StatusGatewayTimeout, model.ErrorCodeConnectTimeout
	case remote.KindNotFound:
		status, code = http.StatusNotFound, model.ErrorCodeFileNotFound
	case remote.KindPermission:
		status, code = http.StatusForbidden, model.ErrorCodePermissionDenied
	case remote.KindConflict:
		status, code = http.StatusConflict, model.ErrorCodeDestinationExists
	}
	c.RespondError(status, code, err.Error())
}

// PingHandler answers liveness checks.
func PingHandler(ctx *gin.Context) {
	ctx.String(http.StatusOK, "pong")
}

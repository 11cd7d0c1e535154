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

package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openbridge/sftpgated/pkg/log"
	"github.com/openbridge/sftpgated/pkg/session"
	"github.com/openbridge/sftpgated/pkg/store"
	"github.com/openbridge/sftpgated/pkg/web/controller"
	"github.com/openbridge/sftpgated/pkg/web/model"
)

const sessionContextKey = "gateway-session"

// NewRouter builds a Gin engine with all gateway routes.
func NewRouter(accessToken string, st *store.Store, reg *session.Registry, dial controller.DialSettings) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logMiddleware(), accessTokenMiddleware(accessToken))

	r.GET("/ping", controller.PingHandler)

	connections := r.Group("/connections")
	{
		connections.POST("", withConnection(st, func(c *controller.ConnectionController) { c.Create() }))
		connections.GET("", withConnection(st, func(c *controller.ConnectionController) { c.List() }))
		connections.GET("/:id", withConnection(st, func(c *controller.ConnectionController) { c.Get() }))
		connections.DELETE("/:id", withConnection(st, func(c *controller.ConnectionController) { c.Delete() }))
	}

	sess := r.Group("/connections/:id/session")
	{
		sess.POST("", withSession(st, reg, dial, func(c *controller.SessionController) { c.Create() }))
		sess.GET("", withSession(st, reg, dial, func(c *controller.SessionController) { c.Get() }))
		sess.PUT("", withSession(st, reg, dial, func(c *controller.SessionController) { c.KeepAlive() }))
		sess.DELETE("", withSession(st, reg, dial, func(c *controller.SessionController) { c.Close() }))
	}

	files := r.Group("/connections/:id/files", sessionMiddleware(reg))
	{
		files.GET("", withFilesystem(func(c *controller.FilesystemController) { c.List() }))
		files.GET("/content", withFilesystem(func(c *controller.FilesystemController) { c.ReadContent() }))
		files.PUT("", withFilesystem(func(c *controller.FilesystemController) { c.WriteFile() }))
		files.DELETE("", withFilesystem(func(c *controller.FilesystemController) { c.Remove() }))
		files.GET("/info", withFilesystem(func(c *controller.FilesystemController) { c.GetInfo() }))
		files.POST("/mkdir", withFilesystem(func(c *controller.FilesystemController) { c.Mkdir() }))
		files.POST("/rename", withFilesystem(func(c *controller.FilesystemController) { c.Rename() }))
		files.POST("/copy", withFilesystem(func(c *controller.FilesystemController) { c.Copy() }))
		files.POST("/move", withFilesystem(func(c *controller.FilesystemController) { c.Move() }))
		files.POST("/chmod", withFilesystem(func(c *controller.FilesystemController) { c.Chmod() }))
		files.GET("/search", withFilesystem(func(c *controller.FilesystemController) { c.SearchGet() }))
		files.POST("/search", withFilesystem(func(c *controller.FilesystemController) { c.SearchPost() }))
		files.GET("/download", withFilesystem(func(c *controller.FilesystemController) { c.Download() }))
		files.POST("/download", withFilesystem(func(c *controller.FilesystemController) { c.BulkDownload() }))
		files.POST("/upload", withFilesystem(func(c *controller.FilesystemController) { c.Upload() }))
	}

	metric := r.Group("/metrics")
	{
		metric.GET("", withMetric(reg, func(c *controller.MetricController) { c.GetMetrics() }))
	}

	return r
}

func withConnection(st *store.Store, fn func(*controller.ConnectionController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewConnectionController(ctx, st))
	}
}

func withSession(st *store.Store, reg *session.Registry, dial controller.DialSettings, fn func(*controller.SessionController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewSessionController(ctx, st, reg, dial))
	}
}

func withFilesystem(fn func(*controller.FilesystemController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		sess := ctx.MustGet(sessionContextKey).(*session.Session)
		fn(controller.NewFilesystemController(ctx, sess))
	}
}

func withMetric(reg *session.Registry, fn func(*controller.MetricController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewMetricController(ctx, reg))
	}
}

func accessTokenMiddleware(token string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token == "" {
			ctx.Next()
			return
		}

		requestedToken := ctx.GetHeader(model.ApiAccessTokenHeader)
		if requestedToken == "" || requestedToken != token {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, map[string]any{
				"error": "Unauthorized: invalid or missing header " + model.ApiAccessTokenHeader,
			})
			return
		}

		ctx.Next()
	}
}

// sessionMiddleware resolves the caller's session token before any file verb
// runs, refreshing its activity timestamps as a side effect.
func sessionMiddleware(reg *session.Registry) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := ctx.GetHeader(model.SessionTokenHeader)
		if token == "" {
			abortSession(ctx, model.ErrorCodeSessionRequired, "missing header "+model.SessionTokenHeader)
			return
		}

		sess, err := reg.Resolve(token, controller.OwnerID(ctx))
		if err != nil {
			switch {
			case errors.Is(err, session.ErrSessionExpired):
				abortSession(ctx, model.ErrorCodeSessionExpired, "session expired, create a new one")
			default:
				abortSession(ctx, model.ErrorCodeSessionRequired, "unknown session token")
			}
			return
		}

		if id := ctx.Param("id"); id != "" && id != sess.ConnectionID {
			ctx.AbortWithStatusJSON(http.StatusNotFound, model.ErrorResponse{
				Code:    model.ErrorCodeConnectionMissing,
				Message: "session does not belong to this connection",
			})
			return
		}

		ctx.Set(sessionContextKey, sess)
		ctx.Next()
	}
}

func abortSession(ctx *gin.Context, code model.ErrorCode, msg string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{Code: code, Message: msg})
}

func logMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		log.Info("Requested: %v - %v", ctx.Request.Method, ctx.Request.URL.String())
		ctx.Next()
	}
}

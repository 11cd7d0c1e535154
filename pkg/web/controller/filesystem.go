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
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openbridge/sftpgated/pkg/remote"
	"github.com/openbridge/sftpgated/pkg/session"
	"github.com/openbridge/sftpgated/pkg/web/model"
)

// FilesystemController executes file verbs against the caller's session.
type FilesystemController struct {
	*basicController
	sess *session.Session
}

func NewFilesystemController(ctx *gin.Context, sess *session.Session) *FilesystemController {
	return &FilesystemController{basicController: newBasicController(ctx), sess: sess}
}

func (c *FilesystemController) requirePathQuery() (string, bool) {
	path := c.ctx.Query("path")
	if path == "" {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeMissingQuery,
			"missing query parameter 'path'",
		)
		return "", false
	}
	return path, true
}

// List returns a single-directory listing.
func (c *FilesystemController) List() {
	path, ok := c.requirePathQuery()
	if !ok {
		return
	}

	entries, err := c.sess.Exec().List(path)
	if err != nil {
		c.RespondMappedError(err)
		return
	}

	resp := make([]model.FileInfo, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, model.NewFileInfo(entry))
	}
	c.RespondSuccess(resp)
}

// ReadContent returns a file as text for editing.
func (c *FilesystemController) ReadContent() {
	path, ok := c.requirePathQuery()
	if !ok {
		return
	}

	content, err := c.sess.Exec().ReadText(path)
	if err != nil {
		c.RespondMappedError(err)
		return
	}
	c.RespondSuccess(model.FileContent{Path: path, Content: content})
}

// WriteFile creates or overwrites a file.
func (c *FilesystemController) WriteFile() {
	var request model.WriteFileRequest
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
			fmt.Sprintf("invalid write request. %v", err),
		)
		return
	}

	if err := c.sess.Exec().Write(request.Path, []byte(request.Content)); err != nil {
		c.RespondMappedError(err)
		return
	}
	c.RespondSuccess(nil)
}

// Remove deletes a file or directory tree.
func (c *FilesystemController) Remove() {
	path, ok := c.requirePathQuery()
	if !ok {
		return
	}

	if err := c.sess.Exec().Delete(path); err != nil {
		c.RespondMappedError(err)
		return
	}
	c.RespondSuccess(nil)
}

// GetInfo returns metadata for one entry.
func (c *FilesystemController) GetInfo() {
	path, ok := c.requirePathQuery()
	if !ok {
		return
	}

	info, err := c.sess.Exec().Stat(path)
	if err != nil {
		c.RespondMappedError(err)
		return
	}
	c.RespondSuccess(model.NewFileInfo(info))
}

// Mkdir creates a directory.
func (c *FilesystemController) Mkdir() {
	var request model.MkdirRequest
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
			fmt.Sprintf("invalid mkdir request. %v", err),
		)
		return
	}

	if err := c.sess.Exec().Mkdir(request.Path); err != nil {
		c.RespondMappedError(err)
		return
	}
	c.RespondSuccess(nil)
}

// Rename moves an entry to a new path.
func (c *FilesystemController) Rename() {
	var request model.RenameRequest
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
			fmt.Sprintf("invalid rename request. %v", err),
		)
		return
	}

	if err := c.sess.Exec().Rename(request.OldPath, request.NewPath); err != nil {
		c.RespondMappedError(err)
		return
	}
	c.RespondSuccess(nil)
}

// Copy duplicates an entry.
func (c *FilesystemController) Copy() {
	c.transfer(func(request model.TransferRequest) error {
		return c.sess.Exec().Copy(request.SourcePath, request.DestinationPath, request.Overwrite)
	})
}

// Move relocates an entry.
func (c *FilesystemController) Move() {
	c.transfer(func(request model.TransferRequest) error {
		return c.sess.Exec().Move(request.SourcePath, request.DestinationPath, request.Overwrite)
	})
}

func (c *FilesystemController) transfer(apply func(model.TransferRequest) error) {
	var request model.TransferRequest
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
			fmt.Sprintf("invalid transfer request. %v", err),
		)
		return
	}

	if err := apply(request); err != nil {
		c.RespondMappedError(err)
		return
	}
	c.RespondSuccess(nil)
}

// Chmod applies an octal permission mode to one entry.
func (c *FilesystemController) Chmod() {
	var request model.ChmodRequest
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
			fmt.Sprintf("invalid chmod request. %v", err),
		)
		return
	}

	mode, err := strconv.ParseUint(request.Mode, 8, 32)
	if err != nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeValidationFailed,
			fmt.Sprintf("invalid octal mode %q", request.Mode),
		)
		return
	}

	if err := c.sess.Exec().Chmod(request.Path, int(mode)); err != nil {
		c.RespondMappedError(err)
		return
	}
	c.RespondSuccess(nil)
}

// SearchGet handles the simple query-parameter form of search.
func (c *FilesystemController) SearchGet() {
	query := c.ctx.Query("q")
	if query == "" {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeMissingQuery,
			"missing query parameter 'q'",
		)
		return
	}
	path, ok := c.requirePathQuery()
	if !ok {
		return
	}

	c.runSearch(remote.SearchQuery{
		Query:    query,
		RootPath: path,
		Type:     remote.EntryType(c.ctx.Query("type")),
	})
}

// SearchPost handles the extended search body.
func (c *FilesystemController) SearchPost() {
	var request model.SearchRequest
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
			fmt.Sprintf("invalid search request. %v", err),
		)
		return
	}

	c.runSearch(remote.SearchQuery{
		Query:          request.Query,
		RootPath:       request.Path,
		Type:           remote.EntryType(request.Type),
		CaseSensitive:  request.CaseSensitive,
		Regex:          request.Regex,
		IncludeContent: request.IncludeContent,
		MaxResults:     request.MaxResults,
	})
}

func (c *FilesystemController) runSearch(q remote.SearchQuery) {
	results, err := c.sess.Exec().Search(q)
	if err != nil {
		c.RespondMappedError(err)
		return
	}

	resp := make([]model.SearchResult, 0, len(results))
	for _, result := range results {
		resp = append(resp, model.NewSearchResult(result))
	}
	c.RespondSuccess(resp)
}

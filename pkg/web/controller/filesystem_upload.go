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
	"io"
	"net/http"
	"path"

	"github.com/openbridge/sftpgated/pkg/web/model"
)

// Upload writes a multipart-uploaded file to the remote host. The form
// carries the blob under "file" and the destination under "path"; a
// destination ending in "/" takes the uploaded file's own name.
func (c *FilesystemController) Upload() {
	fileHeader, err := c.ctx.FormFile("file")
	if err != nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidFile,
			fmt.Sprintf("missing or unreadable multipart field 'file'. %v", err),
		)
		return
	}

	dest := c.ctx.PostForm("path")
	if dest == "" {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeMissingQuery,
			"missing form field 'path'",
		)
		return
	}
	if dest[len(dest)-1] == '/' {
		dest = path.Join(dest, fileHeader.Filename)
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidFile,
			fmt.Sprintf("error opening uploaded file. %v", err),
		)
		return
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidFile,
			fmt.Sprintf("error reading uploaded file. %v", err),
		)
		return
	}

	if err := c.sess.Exec().Write(dest, content); err != nil {
		c.RespondMappedError(err)
		return
	}
	c.RespondSuccess(model.FileContent{Path: dest})
}

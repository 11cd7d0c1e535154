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
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/openbridge/sftpgated/pkg/remote"
	"github.com/openbridge/sftpgated/pkg/web/model"
)

// Download streams one remote file back as an attachment.
func (c *FilesystemController) Download() {
	path, ok := c.requirePathQuery()
	if !ok {
		return
	}

	dl, err := c.sess.Exec().DownloadSingle(path)
	if err != nil {
		c.RespondMappedError(err)
		return
	}

	c.respondAttachment(dl.Filename, dl.MimeType, dl.Content)
}

// BulkDownload zips several remote files into one attachment. A request for
// exactly one path degenerates to a plain single-file download.
func (c *FilesystemController) BulkDownload() {
	var request model.BulkDownloadRequest
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
			fmt.Sprintf("invalid download request. %v", err),
		)
		return
	}

	if len(request.Paths) == 1 {
		dl, err := c.sess.Exec().DownloadSingle(request.Paths[0])
		if err != nil {
			c.RespondMappedError(err)
			return
		}
		c.respondAttachment(dl.Filename, dl.MimeType, dl.Content)
		return
	}

	var buf bytes.Buffer
	if _, err := c.sess.Exec().BuildArchive(&buf, request.Paths); err != nil {
		c.RespondMappedError(err)
		return
	}

	c.respondAttachment(remote.ArchiveFilename(time.Now()), remote.ArchiveMimeType, buf.Bytes())
}

func (c *FilesystemController) respondAttachment(filename, mimeType string, content []byte) {
	c.ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.ctx.Data(http.StatusOK, mimeType, content)
}

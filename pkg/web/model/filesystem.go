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

package model

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/openbridge/sftpgated/pkg/remote"
)

// FileInfo represents one remote filesystem entry.
type FileInfo struct {
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Size        int64     `json:"size"`
	Permissions string    `json:"permissions"`
	ModifiedAt  time.Time `json:"modified_at"`
	Owner       string    `json:"owner,omitempty"`
	Group       string    `json:"group,omitempty"`
}

// NewFileInfo converts an executor entry to its wire shape.
func NewFileInfo(fi remote.FileInfo) FileInfo {
	return FileInfo{
		Path:        fi.Path,
		Name:        fi.Name,
		Type:        string(fi.Type),
		Size:        fi.Size,
		Permissions: fi.Permissions,
		ModifiedAt:  fi.ModifiedAt,
		Owner:       fi.Owner,
		Group:       fi.Group,
	}
}

// FileContent is the read shape of a text file.
type FileContent struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// WriteFileRequest creates or overwrites a file.
type WriteFileRequest struct {
	Path    string `json:"path" validate:"required"`
	Content string `json:"content"`
}

func (r *WriteFileRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// MkdirRequest creates a directory.
type MkdirRequest struct {
	Path string `json:"path" validate:"required"`
}

func (r *MkdirRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// RenameRequest renames an entry in place or across directories.
type RenameRequest struct {
	OldPath string `json:"old_path" validate:"required"`
	NewPath string `json:"new_path" validate:"required"`
}

func (r *RenameRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// TransferRequest covers copy and move.
type TransferRequest struct {
	SourcePath      string `json:"source_path" validate:"required"`
	DestinationPath string `json:"destination_path" validate:"required"`
	Overwrite       bool   `json:"overwrite,omitempty"`
}

func (r *TransferRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ChmodRequest applies an octal permission mode.
type ChmodRequest struct {
	Path string `json:"path" validate:"required"`
	Mode string `json:"mode" validate:"required"`
}

func (r *ChmodRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// SearchRequest is the extended search body.
type SearchRequest struct {
	Query          string `json:"query" validate:"required"`
	Path           string `json:"path" validate:"required"`
	Type           string `json:"type,omitempty" validate:"omitempty,oneof=file directory symlink"`
	CaseSensitive  bool   `json:"case_sensitive,omitempty"`
	Regex          bool   `json:"regex,omitempty"`
	IncludeContent bool   `json:"include_content,omitempty"`
	MaxResults     int    `json:"max_results,omitempty" validate:"omitempty,min=1,max=1000"`
}

func (r *SearchRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ContentMatch locates one content hit.
type ContentMatch struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Text   string `json:"text"`
}

// SearchResult is one search hit, optionally with content locations.
type SearchResult struct {
	FileInfo
	Matches []ContentMatch `json:"matches,omitempty"`
}

// NewSearchResult converts an executor hit to its wire shape.
func NewSearchResult(sr remote.SearchResult) SearchResult {
	out := SearchResult{FileInfo: NewFileInfo(sr.FileInfo)}
	for _, m := range sr.Matches {
		out.Matches = append(out.Matches, ContentMatch{Line: m.Line, Column: m.Column, Text: m.Text})
	}
	return out
}

// BulkDownloadRequest fetches several paths as one archive.
type BulkDownloadRequest struct {
	Paths  []string `json:"paths" validate:"required,min=1"`
	Format string   `json:"format,omitempty" validate:"omitempty,oneof=zip"`
}

func (r *BulkDownloadRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

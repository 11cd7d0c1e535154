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
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/openbridge/sftpgated/pkg/log"
)

// ArchiveMimeType is the fixed content type of bulk downloads.
const ArchiveMimeType = "application/zip"

// ArchiveFilename picks a timestamp-based name when no single logical name
// applies to a bulk download.
func ArchiveFilename(now time.Time) string {
	return "download-" + now.Format("20060102-150405") + ".zip"
}

// BuildArchive streams the given remote files into a zip written to w and
// returns how many entries made it in. Directories in the list are skipped,
// not recursed. A file that fails to fetch is logged and skipped; the
// archive as a whole still succeeds. Only an empty archive is an error.
func (x *Executor) BuildArchive(w io.Writer, paths []string) (int, error) {
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		cp, err := ValidatePath(p)
		if err != nil {
			return 0, err
		}
		cleaned = append(cleaned, cp)
	}
	if len(cleaned) == 0 {
		return 0, validationErr("archive", "", "no paths given")
	}

	root := commonRoot(cleaned)
	zw := zip.NewWriter(w)
	archived := 0

	for _, p := range cleaned {
		info, err := x.Stat(p)
		if err != nil {
			log.Warn("archive: skip %s: %v", p, err)
			continue
		}
		if info.Type == EntryDir {
			log.Debug("archive: skip directory %s", p)
			continue
		}

		content, err := x.ReadBinary(p)
		if err != nil {
			log.Warn("archive: skip %s: %v", p, err)
			continue
		}

		hdr := &zip.FileHeader{
			Name:     archiveEntryName(root, p),
			Method:   zip.Deflate,
			Modified: info.ModifiedAt,
		}
		entry, err := zw.CreateHeader(hdr)
		if err != nil {
			_ = zw.Close()
			return archived, &Error{Kind: KindUnknown, Op: "archive", Path: p, Err: err}
		}
		if _, err := entry.Write(content); err != nil {
			_ = zw.Close()
			return archived, &Error{Kind: KindUnknown, Op: "archive", Path: p, Err: err}
		}
		archived++
	}

	if err := zw.Close(); err != nil {
		return archived, &Error{Kind: KindUnknown, Op: "archive", Err: err}
	}
	if archived == 0 {
		return 0, &Error{Kind: KindNotFound, Op: "archive", Err: fmt.Errorf("none of the %d requested files could be archived", len(cleaned))}
	}
	return archived, nil
}

// commonRoot finds the deepest directory containing every path in the list.
func commonRoot(paths []string) string {
	root := path.Dir(paths[0])
	for _, p := range paths[1:] {
		dir := path.Dir(p)
		for root != "/" && !strings.HasPrefix(dir+"/", root+"/") {
			root = path.Dir(root)
		}
	}
	return root
}

func archiveEntryName(root, p string) string {
	name := strings.TrimPrefix(p, root)
	return strings.TrimPrefix(name, "/")
}

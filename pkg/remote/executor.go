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
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
)

// FS is the narrow surface the executor needs from the SFTP channel.
// The live link backs it with *sftp.Client; tests use an in-memory fake.
type FS interface {
	ReadDir(path string) ([]os.FileInfo, error)
	Stat(path string) (os.FileInfo, error)
	Lstat(path string) (os.FileInfo, error)
	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
	Mkdir(path string) error
	Remove(path string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
	Chmod(path string, mode os.FileMode) error
}

// EntryType tags a filesystem entry.
type EntryType string

const (
	EntryFile    EntryType = "file"
	EntryDir     EntryType = "directory"
	EntrySymlink EntryType = "symlink"
	EntryUnknown EntryType = "unknown"
)

// FileInfo describes one remote filesystem entry. It is produced fresh on
// every call and never cached.
type FileInfo struct {
	Path        string
	Name        string
	Type        EntryType
	Size        int64
	Permissions string
	ModifiedAt  time.Time
	Owner       string
	Group       string
}

// Executor translates filesystem verbs into channel operations. The SFTP
// channel accepts one in-flight command at a time, so every verb holds the
// link mutex; parallelism happens across sessions, not within one.
type Executor struct {
	fs FS
	mu *sync.Mutex
}

func newExecutor(fs FS, mu *sync.Mutex) *Executor {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &Executor{fs: fs, mu: mu}
}

// NewExecutor builds an executor over fs with its own serialization lock.
// Production executors come from Link.Exec; this constructor exists for
// composing against alternative FS implementations.
func NewExecutor(fs FS) *Executor {
	return newExecutor(fs, nil)
}

// ValidatePath rejects relative paths, parent-directory segments and
// home-directory shorthand before anything reaches the wire, then returns
// the cleaned form.
func ValidatePath(p string) (string, error) {
	if p == "" {
		return "", validationErr("validate", p, "path is empty")
	}
	if !strings.HasPrefix(p, "/") {
		return "", validationErr("validate", p, "path must be absolute")
	}
	if strings.Contains(p, "~") {
		return "", validationErr("validate", p, "path must not contain home-directory shorthand")
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", validationErr("validate", p, "path must not contain parent-directory segments")
		}
	}
	return path.Clean(p), nil
}

// List returns the entries of a single directory, non-recursive, sorted by
// name with directories first.
func (x *Executor) List(dir string) ([]FileInfo, error) {
	dir, err := ValidatePath(dir)
	if err != nil {
		return nil, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	entries, err := x.fs.ReadDir(dir)
	if err != nil {
		return nil, classifyOp("list", dir, err)
	}

	infos := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		infos = append(infos, toFileInfo(path.Join(dir, entry.Name()), entry))
	}
	sort.Slice(infos, func(i, j int) bool {
		if (infos[i].Type == EntryDir) != (infos[j].Type == EntryDir) {
			return infos[i].Type == EntryDir
		}
		return infos[i].Name < infos[j].Name
	})
	return infos, nil
}

// Stat returns metadata for a single entry.
func (x *Executor) Stat(p string) (FileInfo, error) {
	p, err := ValidatePath(p)
	if err != nil {
		return FileInfo{}, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	return x.statLocked(p)
}

func (x *Executor) statLocked(p string) (FileInfo, error) {
	info, err := x.fs.Lstat(p)
	if err != nil {
		return FileInfo{}, classifyOp("stat", p, err)
	}
	return toFileInfo(p, info), nil
}

// ReadBinary reads the full content of a file.
func (x *Executor) ReadBinary(p string) ([]byte, error) {
	p, err := ValidatePath(p)
	if err != nil {
		return nil, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	return x.readLocked(p)
}

func (x *Executor) readLocked(p string) ([]byte, error) {
	f, err := x.fs.Open(p)
	if err != nil {
		return nil, classifyOp("read", p, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, classifyOp("read", p, err)
	}
	return content, nil
}

// ReadText reads a file as a string.
func (x *Executor) ReadText(p string) (string, error) {
	content, err := x.ReadBinary(p)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// Write creates or overwrites a file with the given content, binary-safe.
func (x *Executor) Write(p string, content []byte) error {
	p, err := ValidatePath(p)
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	return x.writeLocked(p, content)
}

func (x *Executor) writeLocked(p string, content []byte) error {
	f, err := x.fs.Create(p)
	if err != nil {
		return classifyOp("write", p, err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return classifyOp("write", p, err)
	}
	if err := f.Close(); err != nil {
		return classifyOp("write", p, err)
	}
	return nil
}

// Mkdir creates a single directory.
func (x *Executor) Mkdir(p string) error {
	p, err := ValidatePath(p)
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.fs.Mkdir(p); err != nil {
		return classifyOp("mkdir", p, err)
	}
	return nil
}

// Delete removes a file or a directory tree.
func (x *Executor) Delete(p string) error {
	p, err := ValidatePath(p)
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	info, err := x.fs.Lstat(p)
	if err != nil {
		return classifyOp("delete", p, err)
	}
	if info.IsDir() {
		if err := x.fs.RemoveAll(p); err != nil {
			return classifyOp("delete", p, err)
		}
		return nil
	}
	if err := x.fs.Remove(p); err != nil {
		return classifyOp("delete", p, err)
	}
	return nil
}

// Rename moves an entry to a new path on the same filesystem.
func (x *Executor) Rename(oldPath, newPath string) error {
	oldPath, err := ValidatePath(oldPath)
	if err != nil {
		return err
	}
	newPath, err = ValidatePath(newPath)
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.fs.Rename(oldPath, newPath); err != nil {
		return classifyOp("rename", oldPath, err)
	}
	return nil
}

// Copy duplicates a file or directory tree. Fails with a conflict error when
// the destination exists and overwrite is false.
func (x *Executor) Copy(src, dst string, overwrite bool) error {
	src, err := ValidatePath(src)
	if err != nil {
		return err
	}
	dst, err = ValidatePath(dst)
	if err != nil {
		return err
	}
	if src == dst {
		return validationErr("copy", src, "source and destination are the same path")
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	info, err := x.fs.Lstat(src)
	if err != nil {
		return classifyOp("copy", src, err)
	}
	if err := x.checkDestinationLocked("copy", dst, overwrite); err != nil {
		return err
	}
	return x.copyEntryLocked(src, dst, info)
}

func (x *Executor) checkDestinationLocked(op, dst string, overwrite bool) error {
	if _, err := x.fs.Lstat(dst); err == nil {
		if !overwrite {
			return &Error{Kind: KindConflict, Op: op, Path: dst, Err: fmt.Errorf("destination already exists")}
		}
	} else if !os.IsNotExist(err) {
		return classifyOp(op, dst, err)
	}
	return nil
}

func (x *Executor) copyEntryLocked(src, dst string, info os.FileInfo) error {
	if !info.IsDir() {
		content, err := x.readLocked(src)
		if err != nil {
			return err
		}
		if err := x.writeLocked(dst, content); err != nil {
			return err
		}
		_ = x.fs.Chmod(dst, info.Mode().Perm())
		return nil
	}

	if err := x.fs.Mkdir(dst); err != nil && !os.IsExist(err) {
		return classifyOp("copy", dst, err)
	}
	entries, err := x.fs.ReadDir(src)
	if err != nil {
		return classifyOp("copy", src, err)
	}
	for _, entry := range entries {
		if err := x.copyEntryLocked(path.Join(src, entry.Name()), path.Join(dst, entry.Name()), entry); err != nil {
			return err
		}
	}
	return nil
}

// Move relocates an entry, preferring a server-side rename and falling back
// to copy+delete when the remote rejects it.
func (x *Executor) Move(src, dst string, overwrite bool) error {
	src, err := ValidatePath(src)
	if err != nil {
		return err
	}
	dst, err = ValidatePath(dst)
	if err != nil {
		return err
	}
	if src == dst {
		return validationErr("move", src, "source and destination are the same path")
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	info, err := x.fs.Lstat(src)
	if err != nil {
		return classifyOp("move", src, err)
	}
	if err := x.checkDestinationLocked("move", dst, overwrite); err != nil {
		return err
	}

	if err := x.fs.Rename(src, dst); err == nil {
		return nil
	}

	if err := x.copyEntryLocked(src, dst, info); err != nil {
		return err
	}
	if info.IsDir() {
		err = x.fs.RemoveAll(src)
	} else {
		err = x.fs.Remove(src)
	}
	if err != nil {
		return classifyOp("move", src, err)
	}
	return nil
}

// Chmod validates the mode locally, then applies it remotely.
func (x *Executor) Chmod(p string, mode int) error {
	p, err := ValidatePath(p)
	if err != nil {
		return err
	}
	if mode < 0 || mode > 0o777 {
		return validationErr("chmod", p, "mode %o out of range [0, 0777]", mode)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.fs.Chmod(p, os.FileMode(mode)); err != nil {
		return classifyOp("chmod", p, err)
	}
	return nil
}

// Download describes the payload of a single-file download.
type Download struct {
	Content  []byte
	Filename string
	MimeType string
}

// DownloadSingle fetches a file together with its download metadata.
func (x *Executor) DownloadSingle(p string) (Download, error) {
	p, err := ValidatePath(p)
	if err != nil {
		return Download{}, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	info, err := x.fs.Lstat(p)
	if err != nil {
		return Download{}, classifyOp("download", p, err)
	}
	if info.IsDir() {
		return Download{}, validationErr("download", p, "path is a directory")
	}

	content, err := x.readLocked(p)
	if err != nil {
		return Download{}, err
	}
	return Download{
		Content:  content,
		Filename: path.Base(p),
		MimeType: MimeTypeOf(p),
	}, nil
}

func toFileInfo(fullPath string, info os.FileInfo) FileInfo {
	fi := FileInfo{
		Path:        fullPath,
		Name:        info.Name(),
		Type:        entryTypeOf(info.Mode()),
		Size:        info.Size(),
		Permissions: fmt.Sprintf("%04o", info.Mode().Perm()),
		ModifiedAt:  info.ModTime(),
	}
	if st, ok := info.Sys().(*sftp.FileStat); ok {
		fi.Owner = fmt.Sprintf("%d", st.UID)
		fi.Group = fmt.Sprintf("%d", st.GID)
	}
	return fi
}

func entryTypeOf(mode os.FileMode) EntryType {
	switch {
	case mode.IsRegular():
		return EntryFile
	case mode.IsDir():
		return EntryDir
	case mode&os.ModeSymlink != 0:
		return EntrySymlink
	default:
		return EntryUnknown
	}
}

// mimeBySuffix is the static suffix table for single-file downloads.
var mimeBySuffix = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".html": "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".sh":   "text/x-shellscript",
	".go":   "text/x-go",
	".py":   "text/x-python",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".zip":  "application/zip",
	".tar":  "application/x-tar",
	".gz":   "application/gzip",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
}

// MimeTypeOf infers a content type from the file suffix, defaulting to an
// opaque binary type.
func MimeTypeOf(p string) string {
	if mt, ok := mimeBySuffix[strings.ToLower(path.Ext(p))]; ok {
		return mt
	}
	return "application/octet-stream"
}

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
	"bytes"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"
)

// fakeFS is an in-memory FS for executor tests. Directories and files live
// in flat maps keyed by cleaned absolute path.
type fakeFS struct {
	dirs  map[string]bool
	files map[string][]byte
	modes map[string]os.FileMode

	renameErr  error
	chmodCalls []string
}

func newFakeFS() *fakeFS {
	return &fakeFS{
		dirs:  map[string]bool{"/": true},
		files: map[string][]byte{},
		modes: map[string]os.FileMode{},
	}
}

func (f *fakeFS) addDir(p string) {
	for p != "/" {
		f.dirs[p] = true
		p = path.Dir(p)
	}
}

func (f *fakeFS) addFile(p string, content []byte) {
	f.addDir(path.Dir(p))
	f.files[p] = content
}

type fakeInfo struct {
	name string
	size int64
	mode os.FileMode
}

func (i fakeInfo) Name() string       { return i.name }
func (i fakeInfo) Size() int64        { return i.size }
func (i fakeInfo) Mode() os.FileMode  { return i.mode }
func (i fakeInfo) ModTime() time.Time { return time.Unix(1700000000, 0) }
func (i fakeInfo) IsDir() bool        { return i.mode.IsDir() }
func (i fakeInfo) Sys() any           { return nil }

func (f *fakeFS) infoOf(p string) (os.FileInfo, error) {
	if f.dirs[p] {
		mode := os.ModeDir | 0o755
		if m, ok := f.modes[p]; ok {
			mode = os.ModeDir | m
		}
		return fakeInfo{name: path.Base(p), mode: mode}, nil
	}
	if content, ok := f.files[p]; ok {
		mode := os.FileMode(0o644)
		if m, ok := f.modes[p]; ok {
			mode = m
		}
		return fakeInfo{name: path.Base(p), size: int64(len(content)), mode: mode}, nil
	}
	return nil, os.ErrNotExist
}

func (f *fakeFS) ReadDir(dir string) ([]os.FileInfo, error) {
	if !f.dirs[dir] {
		return nil, os.ErrNotExist
	}
	seen := map[string]bool{}
	var out []os.FileInfo
	collect := func(p string) {
		if path.Dir(p) != dir || seen[p] {
			return
		}
		seen[p] = true
		info, _ := f.infoOf(p)
		out = append(out, info)
	}
	for p := range f.dirs {
		if p != "/" {
			collect(p)
		}
	}
	for p := range f.files {
		collect(p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (f *fakeFS) Stat(p string) (os.FileInfo, error)  { return f.infoOf(p) }
func (f *fakeFS) Lstat(p string) (os.FileInfo, error) { return f.infoOf(p) }

func (f *fakeFS) Open(p string) (io.ReadCloser, error) {
	content, ok := f.files[p]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

type fakeWriter struct {
	buf  bytes.Buffer
	fs   *fakeFS
	path string
}

func (w *fakeWriter) Write(b []byte) (int, error) { return w.buf.Write(b) }

func (w *fakeWriter) Close() error {
	w.fs.files[w.path] = append([]byte(nil), w.buf.Bytes()...)
	return nil
}

func (f *fakeFS) Create(p string) (io.WriteCloser, error) {
	if !f.dirs[path.Dir(p)] {
		return nil, os.ErrNotExist
	}
	if f.dirs[p] {
		return nil, os.ErrPermission
	}
	return &fakeWriter{fs: f, path: p}, nil
}

func (f *fakeFS) Mkdir(p string) error {
	if f.dirs[p] {
		return os.ErrExist
	}
	if !f.dirs[path.Dir(p)] {
		return os.ErrNotExist
	}
	f.dirs[p] = true
	return nil
}

func (f *fakeFS) Remove(p string) error {
	if _, ok := f.files[p]; ok {
		delete(f.files, p)
		return nil
	}
	if f.dirs[p] {
		children, _ := f.ReadDir(p)
		if len(children) > 0 {
			return os.ErrPermission
		}
		delete(f.dirs, p)
		return nil
	}
	return os.ErrNotExist
}

func (f *fakeFS) RemoveAll(p string) error {
	for q := range f.files {
		if q == p || strings.HasPrefix(q, p+"/") {
			delete(f.files, q)
		}
	}
	for q := range f.dirs {
		if q == p || strings.HasPrefix(q, p+"/") {
			delete(f.dirs, q)
		}
	}
	return nil
}

func (f *fakeFS) Rename(oldpath, newpath string) error {
	if f.renameErr != nil {
		return f.renameErr
	}
	if _, ok := f.files[oldpath]; ok {
		f.files[newpath] = f.files[oldpath]
		delete(f.files, oldpath)
		if m, ok := f.modes[oldpath]; ok {
			f.modes[newpath] = m
			delete(f.modes, oldpath)
		}
		return nil
	}
	if f.dirs[oldpath] {
		for q, content := range f.files {
			if strings.HasPrefix(q, oldpath+"/") {
				f.files[newpath+strings.TrimPrefix(q, oldpath)] = content
				delete(f.files, q)
			}
		}
		for q := range f.dirs {
			if q == oldpath || strings.HasPrefix(q, oldpath+"/") {
				f.dirs[newpath+strings.TrimPrefix(q, oldpath)] = true
				delete(f.dirs, q)
			}
		}
		return nil
	}
	return os.ErrNotExist
}

func (f *fakeFS) Chmod(p string, mode os.FileMode) error {
	f.chmodCalls = append(f.chmodCalls, p)
	if _, err := f.infoOf(p); err != nil {
		return err
	}
	f.modes[p] = mode
	return nil
}

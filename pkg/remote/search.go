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
	"bufio"
	"bytes"
	"io"
	"path"
	"regexp"
	"strings"

	globutil "github.com/bmatcuk/doublestar/v4"

	"github.com/openbridge/sftpgated/pkg/log"
)

const (
	// maxSearchDepth bounds recursion so symlink cycles cannot run forever.
	maxSearchDepth = 32

	// maxContentScanBytes caps how much of a file content search will read.
	maxContentScanBytes = 1 << 20

	defaultMaxResults = 100
)

// SearchQuery describes one recursive search below RootPath.
type SearchQuery struct {
	Query          string
	RootPath       string
	Type           EntryType // empty means any
	CaseSensitive  bool
	Regex          bool
	IncludeContent bool
	MaxResults     int
}

// ContentMatch locates one content hit inside a file.
type ContentMatch struct {
	Line   int
	Column int
	Text   string
}

// SearchResult is one matching entry, optionally annotated with content hits.
type SearchResult struct {
	FileInfo
	Matches []ContentMatch
}

type searchMatcher struct {
	q       SearchQuery
	pattern string
	re      *regexp.Regexp
}

func newSearchMatcher(q SearchQuery) (*searchMatcher, error) {
	m := &searchMatcher{q: q}
	if q.Regex {
		expr := q.Query
		if !q.CaseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, validationErr("search", q.RootPath, "invalid regex %q: %v", q.Query, err)
		}
		m.re = re
		return m, nil
	}

	pattern := q.Query
	if !globutil.ValidatePattern(pattern) {
		return nil, validationErr("search", q.RootPath, "invalid pattern %q", q.Query)
	}
	if !strings.ContainsAny(pattern, "*?[{") {
		pattern = "*" + pattern + "*"
	}
	if !q.CaseSensitive {
		pattern = strings.ToLower(pattern)
	}
	m.pattern = pattern
	return m, nil
}

func (m *searchMatcher) matchName(name string) bool {
	if m.re != nil {
		return m.re.MatchString(name)
	}
	if !m.q.CaseSensitive {
		name = strings.ToLower(name)
	}
	ok, err := globutil.Match(m.pattern, name)
	return err == nil && ok
}

func (m *searchMatcher) findContent(line string) (int, bool) {
	if m.re != nil {
		loc := m.re.FindStringIndex(line)
		if loc == nil {
			return 0, false
		}
		return loc[0], true
	}
	if m.q.CaseSensitive {
		idx := strings.Index(line, m.q.Query)
		return idx, idx >= 0
	}
	idx := strings.Index(strings.ToLower(line), strings.ToLower(m.q.Query))
	return idx, idx >= 0
}

// Search walks the tree below RootPath and collects at most MaxResults
// matches. Symlinks are reported but never followed.
func (x *Executor) Search(q SearchQuery) ([]SearchResult, error) {
	root, err := ValidatePath(q.RootPath)
	if err != nil {
		return nil, err
	}
	if q.Query == "" {
		return nil, validationErr("search", root, "query is empty")
	}
	if q.MaxResults <= 0 {
		q.MaxResults = defaultMaxResults
	}

	matcher, err := newSearchMatcher(q)
	if err != nil {
		return nil, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if _, err := x.fs.Lstat(root); err != nil {
		return nil, classifyOp("search", root, err)
	}

	results := make([]SearchResult, 0, 16)
	x.searchDirLocked(root, 0, matcher, &results)
	return results, nil
}

// searchDirLocked returns false once the result budget is exhausted.
func (x *Executor) searchDirLocked(dir string, depth int, m *searchMatcher, results *[]SearchResult) bool {
	if depth > maxSearchDepth {
		return true
	}

	entries, err := x.fs.ReadDir(dir)
	if err != nil {
		// Unreadable subtrees are skipped, not fatal.
		log.Debug("search: skip %s: %v", dir, err)
		return true
	}

	for _, entry := range entries {
		if len(*results) >= m.q.MaxResults {
			return false
		}

		full := path.Join(dir, entry.Name())
		info := toFileInfo(full, entry)

		if m.q.Type == "" || m.q.Type == info.Type {
			if m.q.IncludeContent && info.Type == EntryFile {
				if matches := x.scanContentLocked(full, info.Size, m); len(matches) > 0 {
					*results = append(*results, SearchResult{FileInfo: info, Matches: matches})
				} else if m.matchName(entry.Name()) {
					*results = append(*results, SearchResult{FileInfo: info})
				}
			} else if m.matchName(entry.Name()) {
				*results = append(*results, SearchResult{FileInfo: info})
			}
		}

		if entry.IsDir() {
			if !x.searchDirLocked(full, depth+1, m, results) {
				return false
			}
		}
	}
	return true
}

func (x *Executor) scanContentLocked(p string, size int64, m *searchMatcher) []ContentMatch {
	if size > maxContentScanBytes {
		return nil
	}
	f, err := x.fs.Open(p)
	if err != nil {
		return nil
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxContentScanBytes))
	if err != nil || bytes.IndexByte(content, 0) >= 0 {
		return nil
	}

	var matches []ContentMatch
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), maxContentScanBytes)
	line := 0
	for scanner.Scan() {
		line++
		if col, ok := m.findContent(scanner.Text()); ok {
			matches = append(matches, ContentMatch{Line: line, Column: col + 1, Text: scanner.Text()})
		}
	}
	return matches
}

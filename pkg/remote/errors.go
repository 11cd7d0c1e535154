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
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/pkg/sftp"
)

// Kind classifies a remote operation failure. Handlers match on Kind,
// never on error text; raw remote error strings are inspected only inside
// this package's classifiers.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindUnreachable
	KindRefused
	KindTimeout
	KindNotFound
	KindPermission
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindUnreachable:
		return "unreachable"
	case KindRefused:
		return "refused"
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "not_found"
	case KindPermission:
		return "permission"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is the single error shape crossing the remote boundary. The wrapped
// cause keeps the original remote message for diagnostics.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a remote Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var re *Error
	return errors.As(err, &re) && re.Kind == kind
}

// KindOf extracts the kind from err, defaulting to KindUnknown.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

func validationErr(op, path, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

// classifyOp translates an SFTP call failure into the taxonomy. pkg/sftp
// normalises SSH_FX_NO_SUCH_FILE into os.ErrNotExist; permission failures
// stay StatusError with the fx code intact.
func classifyOp(op, path string, err error) *Error {
	kind := KindUnknown
	switch {
	case os.IsNotExist(err):
		kind = KindNotFound
	case os.IsPermission(err) || isSFTPPermission(err):
		kind = KindPermission
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func isSFTPPermission(err error) bool {
	var se *sftp.StatusError
	if errors.As(err, &se) {
		return se.FxCode() == sftp.ErrSSHFxPermissionDenied
	}
	return false
}

// classifyDial translates a connect failure. This is the only place where
// error text is matched: the ssh package exposes authentication failures as
// opaque handshake errors.
func classifyDial(err error) *Error {
	e := &Error{Kind: KindUnknown, Op: "connect", Err: err}

	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.As(err, &dnsErr):
		e.Kind = KindUnreachable
	case errors.Is(err, syscall.ECONNREFUSED):
		e.Kind = KindRefused
	case errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH):
		e.Kind = KindUnreachable
	case errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err):
		e.Kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		e.Kind = KindTimeout
	case isAuthFailure(err):
		e.Kind = KindAuth
	}
	return e
}

func isAuthFailure(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "no supported methods remain") ||
		strings.Contains(msg, "permission denied")
}

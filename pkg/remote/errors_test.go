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
	"syscall"
	"testing"
)

func TestClassifyDial(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"dns", &net.DNSError{Err: "no such host", Name: "bad.invalid", IsNotFound: true}, KindUnreachable},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, KindRefused},
		{"host unreachable", &net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH}, KindUnreachable},
		{"net unreachable", &net.OpError{Op: "dial", Err: syscall.ENETUNREACH}, KindUnreachable},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"auth", errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none password]"), KindAuth},
		{"auth exhausted", errors.New("ssh: no supported methods remain"), KindAuth},
		{"opaque", errors.New("ssh: handshake failed: EOF"), KindUnknown},
	}
	for _, c := range cases {
		got := classifyDial(c.err)
		if got.Kind != c.want {
			t.Fatalf("%s: classifyDial kind = %v, want %v", c.name, got.Kind, c.want)
		}
		if !errors.Is(got, c.err) {
			t.Fatalf("%s: classified error lost its cause", c.name)
		}
	}
}

func TestClassifyOp(t *testing.T) {
	if got := classifyOp("stat", "/x", os.ErrNotExist); got.Kind != KindNotFound {
		t.Fatalf("not-exist kind = %v", got.Kind)
	}
	if got := classifyOp("write", "/x", os.ErrPermission); got.Kind != KindPermission {
		t.Fatalf("permission kind = %v", got.Kind)
	}
	if got := classifyOp("read", "/x", errors.New("connection lost")); got.Kind != KindUnknown {
		t.Fatalf("opaque kind = %v", got.Kind)
	}
}

func TestErrorPreservesCauseText(t *testing.T) {
	cause := fmt.Errorf("sftp: \"Failure\" (SSH_FX_FAILURE)")
	err := classifyOp("delete", "/data/f", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("cause not wrapped")
	}
	if got := err.Error(); got != "delete /data/f: sftp: \"Failure\" (SSH_FX_FAILURE)" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestKindHelpers(t *testing.T) {
	err := fmt.Errorf("outer: %w", &Error{Kind: KindConflict, Op: "copy", Path: "/d"})
	if !IsKind(err, KindConflict) {
		t.Fatalf("IsKind missed wrapped error")
	}
	if KindOf(err) != KindConflict {
		t.Fatalf("KindOf = %v", KindOf(err))
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatalf("plain error should map to unknown")
	}
}

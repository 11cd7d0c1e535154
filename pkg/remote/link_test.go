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
	"strings"
	"testing"
)

func TestValidateCredentials(t *testing.T) {
	cases := []struct {
		name    string
		mode    AuthMode
		creds   Credentials
		wantErr bool
	}{
		{"password ok", AuthPassword, Credentials{Password: "s3cret"}, false},
		{"password missing", AuthPassword, Credentials{}, true},
		{"key ok", AuthPrivateKey, Credentials{PrivateKey: []byte("---key---")}, false},
		{"key missing", AuthPrivateKey, Credentials{}, true},
		{"key+passphrase ok", AuthPrivateKeyPassphrase, Credentials{PrivateKey: []byte("k"), Passphrase: "p"}, false},
		{"passphrase missing", AuthPrivateKeyPassphrase, Credentials{PrivateKey: []byte("k")}, true},
		{"key missing with passphrase", AuthPrivateKeyPassphrase, Credentials{Passphrase: "p"}, true},
		{"unknown mode", AuthMode("kerberos"), Credentials{Password: "x"}, true},
	}
	for _, c := range cases {
		err := ValidateCredentials(c.mode, c.creds)
		if c.wantErr && !IsKind(err, KindValidation) {
			t.Fatalf("%s: expected validation error, got %v", c.name, err)
		}
		if !c.wantErr && err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
	}
}

func TestValidateCredentialsErrorOmitsSecret(t *testing.T) {
	err := ValidateCredentials(AuthMode("bogus"), Credentials{Password: "hunter2"})
	if err == nil {
		t.Fatal("expected error")
	}
	if msg := err.Error(); strings.Contains(msg, "hunter2") {
		t.Fatalf("error message leaks secret material: %q", msg)
	}
}

func TestDialRejectsBadKeyBeforeNetwork(t *testing.T) {
	// An unparseable key must fail as validation without any dial attempt;
	// the host below would never resolve anyway.
	_, err := Dial(DialConfig{
		Target:        Target{Host: "sftp.internal.invalid", Username: "u"},
		AuthMode:      AuthPrivateKey,
		Credentials:   Credentials{PrivateKey: []byte("not a pem key")},
		HostKeyPolicy: HostKeyAcceptAny,
	})
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDialRejectsMissingKnownHosts(t *testing.T) {
	_, err := Dial(DialConfig{
		Target:         Target{Host: "sftp.internal.invalid", Username: "u"},
		AuthMode:       AuthPassword,
		Credentials:    Credentials{Password: "x"},
		HostKeyPolicy:  HostKeyStrict,
		KnownHostsPath: "/nonexistent/known_hosts",
	})
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTargetAddr(t *testing.T) {
	if got := (Target{Host: "h"}).addr(); got != "h:22" {
		t.Fatalf("default port addr = %q", got)
	}
	if got := (Target{Host: "h", Port: 2222}).addr(); got != "h:2222" {
		t.Fatalf("explicit port addr = %q", got)
	}
}

func TestSplitJumpHost(t *testing.T) {
	host, port := splitJumpHost("bastion:2022")
	if host != "bastion" || port != 2022 {
		t.Fatalf("splitJumpHost = %q, %d", host, port)
	}
	host, port = splitJumpHost("bastion")
	if host != "bastion" || port != 22 {
		t.Fatalf("splitJumpHost default = %q, %d", host, port)
	}
}

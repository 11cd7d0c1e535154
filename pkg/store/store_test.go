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

package store

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return st
}

func TestConnectionCRUD(t *testing.T) {
	st := openTestStore(t)

	c := &Connection{
		Name:     "prod sftp",
		Host:     "sftp.example.com",
		Username: "deploy",
		AuthType: "password",
	}
	if err := st.CreateConnection(c); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	if c.ID == "" {
		t.Fatal("no id assigned")
	}
	if c.Port != 22 {
		t.Fatalf("default port = %d", c.Port)
	}

	got, err := st.GetConnection(c.ID)
	if err != nil {
		t.Fatalf("GetConnection: %v", err)
	}
	if got.Host != "sftp.example.com" || got.Username != "deploy" {
		t.Fatalf("unexpected record: %+v", got)
	}

	conns, err := st.ListConnections()
	if err != nil {
		t.Fatalf("ListConnections: %v", err)
	}
	if len(conns) != 1 {
		t.Fatalf("ListConnections returned %d rows", len(conns))
	}

	if err := st.DeleteConnection(c.ID); err != nil {
		t.Fatalf("DeleteConnection: %v", err)
	}
	if _, err := st.GetConnection(c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Re-deleting a missing id is a no-op.
	if err := st.DeleteConnection(c.ID); err != nil {
		t.Fatalf("DeleteConnection second time: %v", err)
	}
}

func TestGetConnectionUnknownID(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.GetConnection("no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSecretRoundTrip(t *testing.T) {
	st := openTestStore(t)

	in := SecretMaterial{Password: "hunter2", PrivateKey: "-----BEGIN KEY-----", Passphrase: "pp"}
	sealed, err := st.EncryptSecret(in)
	if err != nil {
		t.Fatalf("EncryptSecret: %v", err)
	}
	if strings.Contains(sealed, "hunter2") {
		t.Fatal("ciphertext contains plaintext password")
	}

	out, err := st.DecryptSecret(sealed)
	if err != nil {
		t.Fatalf("DecryptSecret: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestDecryptSecretRejectsGarbage(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.DecryptSecret("not-a-fernet-token"); err == nil {
		t.Fatal("expected error for garbage ciphertext")
	}
}

func TestDecryptSecretEmpty(t *testing.T) {
	st := openTestStore(t)
	m, err := st.DecryptSecret("")
	if err != nil {
		t.Fatalf("DecryptSecret: %v", err)
	}
	if m != (SecretMaterial{}) {
		t.Fatalf("empty blob produced material: %+v", m)
	}
}

func TestFernetKeyIsStable(t *testing.T) {
	st := openTestStore(t)

	sealed, err := st.EncryptSecret(SecretMaterial{Password: "pw"})
	if err != nil {
		t.Fatalf("EncryptSecret: %v", err)
	}
	// A second encrypt must reuse the persisted key, so the first blob
	// stays readable.
	if _, err := st.EncryptSecret(SecretMaterial{Password: "other"}); err != nil {
		t.Fatalf("EncryptSecret: %v", err)
	}
	out, err := st.DecryptSecret(sealed)
	if err != nil || out.Password != "pw" {
		t.Fatalf("DecryptSecret after key reuse: %+v, %v", out, err)
	}
}

func TestFailedSettingsReadNeverReplacesKey(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	sealed, err := st.EncryptSecret(SecretMaterial{Password: "pw"})
	if err != nil {
		t.Fatalf("EncryptSecret: %v", err)
	}
	keyStr, err := st.GetSetting(fernetKeySetting)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}

	// Break the settings read. A failed read must surface as an error, not
	// mint a replacement key over the live one.
	sqlDB, err := st.db.DB()
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}
	if _, err := st.EncryptSecret(SecretMaterial{Password: "other"}); err == nil {
		t.Fatal("expected error when the settings read fails")
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	again, err := reopened.GetSetting(fernetKeySetting)
	if err != nil {
		t.Fatalf("GetSetting after reopen: %v", err)
	}
	if again != keyStr {
		t.Fatal("fernet key changed after a failed settings read")
	}
	out, err := reopened.DecryptSecret(sealed)
	if err != nil || out.Password != "pw" {
		t.Fatalf("DecryptSecret after reopen: %+v, %v", out, err)
	}
}

func TestConcurrentFirstUseSharesOneKey(t *testing.T) {
	st := openTestStore(t)

	const n = 16
	sealed := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sealed[i], errs[i] = st.EncryptSecret(SecretMaterial{Password: "pw"})
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("EncryptSecret #%d: %v", i, errs[i])
		}
		out, err := st.DecryptSecret(sealed[i])
		if err != nil || out.Password != "pw" {
			t.Fatalf("DecryptSecret #%d: %+v, %v", i, out, err)
		}
	}
}

func TestGetSettingMissing(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.GetSetting("no-such-key"); !errors.Is(err, ErrSettingNotFound) {
		t.Fatalf("expected ErrSettingNotFound, got %v", err)
	}
}

func TestSettingsUpsert(t *testing.T) {
	st := openTestStore(t)

	if err := st.SetSetting("greeting", "hello"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := st.SetSetting("greeting", "hi"); err != nil {
		t.Fatalf("SetSetting update: %v", err)
	}
	v, err := st.GetSetting("greeting")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != "hi" {
		t.Fatalf("GetSetting = %q", v)
	}
}

func TestMask(t *testing.T) {
	cases := map[string]string{
		"":            "",
		"abc":         "****",
		"abcd":        "****",
		"secretvalue": "****alue",
	}
	for in, want := range cases {
		if got := Mask(in); got != want {
			t.Fatalf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}

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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/openbridge/sftpgated/pkg/log"
)

const fernetKeySetting = "fernet_key"

// SecretMaterial is the decrypted credential payload of a connection.
// It exists in memory only while a session handshake is in flight.
type SecretMaterial struct {
	Password   string `json:"password,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
}

// fernetKey loads the sealing key, generating one on first use. Only an
// absent row triggers generation; a failed read must never replace a live
// key, that would brick every stored secret.
func (s *Store) fernetKey() (*fernet.Key, error) {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()

	keyStr, err := s.GetSetting(fernetKeySetting)
	if errors.Is(err, ErrSettingNotFound) {
		var k fernet.Key
		if err := k.Generate(); err != nil {
			return nil, fmt.Errorf("generate fernet key: %w", err)
		}
		keyStr = k.Encode()
		if err := s.SetSetting(fernetKeySetting, keyStr); err != nil {
			return nil, fmt.Errorf("save fernet key: %w", err)
		}
		log.Info("generated encryption key %s", Mask(keyStr))
		return &k, nil
	}
	if err != nil {
		return nil, err
	}

	key, err := fernet.DecodeKey(keyStr)
	if err != nil {
		return nil, fmt.Errorf("decode fernet key: %w", err)
	}
	return key, nil
}

// EncryptSecret seals the material for storage.
func (s *Store) EncryptSecret(m SecretMaterial) (string, error) {
	key, err := s.fernetKey()
	if err != nil {
		return "", err
	}
	plaintext, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal secret: %w", err)
	}
	tok, err := fernet.EncryptAndSign(plaintext, key)
	if err != nil {
		return "", fmt.Errorf("encrypt secret: %w", err)
	}
	return string(tok), nil
}

// DecryptSecret opens a stored blob on demand; the result must not be
// persisted anywhere.
func (s *Store) DecryptSecret(ciphertext string) (SecretMaterial, error) {
	if ciphertext == "" {
		return SecretMaterial{}, nil
	}
	key, err := s.fernetKey()
	if err != nil {
		return SecretMaterial{}, err
	}
	msg := fernet.VerifyAndDecrypt([]byte(ciphertext), 0*time.Second, []*fernet.Key{key})
	if msg == nil {
		return SecretMaterial{}, fmt.Errorf("decrypt secret: invalid token")
	}
	var m SecretMaterial
	if err := json.Unmarshal(msg, &m); err != nil {
		return SecretMaterial{}, fmt.Errorf("unmarshal secret: %w", err)
	}
	return m, nil
}

// Mask shortens a sensitive value for display.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) > 4 {
		return "****" + value[len(value)-4:]
	}
	return "****"
}

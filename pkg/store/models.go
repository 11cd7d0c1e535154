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

import "time"

// Connection is a stored remote endpoint. Secret holds the fernet-encrypted
// material; plaintext never touches the database.
type Connection struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	Host      string `gorm:"not null"`
	Port      int
	Username  string `gorm:"not null"`
	AuthType  string `gorm:"not null"`
	Secret    string
	ProxyJump string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Setting is a key/value row; the fernet key lives here.
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

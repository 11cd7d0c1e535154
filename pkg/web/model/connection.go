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

package model

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// CreateConnectionRequest registers a remote endpoint. Secret fields are
// write-only: they are encrypted at rest and never echoed back.
type CreateConnectionRequest struct {
	Name       string `json:"name,omitempty"`
	Host       string `json:"host" validate:"required"`
	Port       int    `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Username   string `json:"username" validate:"required"`
	AuthType   string `json:"auth_type" validate:"required,oneof=password private_key private_key_passphrase"`
	Password   string `json:"password,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
	ProxyJump  string `json:"proxy_jump,omitempty"`
}

func (r *CreateConnectionRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ConnectionSummary is the read shape of a stored connection.
type ConnectionSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	Username  string    `json:"username"`
	AuthType  string    `json:"auth_type"`
	ProxyJump string    `json:"proxy_jump,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

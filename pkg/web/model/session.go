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

import "time"

// CreateSessionResponse hands the client its only credential for file
// operations: the opaque session token.
type CreateSessionResponse struct {
	SessionToken string            `json:"session_token"`
	Connection   ConnectionSummary `json:"connection"`
}

// SessionInfo is the metadata view of a live session.
type SessionInfo struct {
	ConnectionID   string    `json:"connection_id"`
	Status         string    `json:"status"`
	Host           string    `json:"host"`
	Username       string    `json:"username"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// KeepAliveResponse reports the extended expiry.
type KeepAliveResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

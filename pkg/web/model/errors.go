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

// ApiAccessTokenHeader authenticates the caller to the gateway itself.
const ApiAccessTokenHeader = "x-access-token"

// SessionTokenHeader carries the opaque session token on file operations.
const SessionTokenHeader = "x-session-token"

// ClientIDHeader identifies the logical owner of a session.
const ClientIDHeader = "x-client-id"

// ErrorCode is a stable machine-readable failure code. Clients branch on
// these, never on message text.
type ErrorCode string

const (
	ErrorCodeUnknown           ErrorCode = "UNKNOWN"
	ErrorCodeInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrorCodeMissingQuery      ErrorCode = "MISSING_QUERY"
	ErrorCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrorCodeSessionRequired   ErrorCode = "SESSION_REQUIRED"
	ErrorCodeSessionExpired    ErrorCode = "SESSION_EXPIRED"
	ErrorCodeAuthFailed        ErrorCode = "AUTH_FAILED"
	ErrorCodeConnectFailed     ErrorCode = "CONNECT_FAILED"
	ErrorCodeConnectTimeout    ErrorCode = "CONNECT_TIMEOUT"
	ErrorCodeHostUnreachable   ErrorCode = "HOST_UNREACHABLE"
	ErrorCodeConnectionRefused ErrorCode = "CONNECTION_REFUSED"
	ErrorCodeFileNotFound      ErrorCode = "FILE_NOT_FOUND"
	ErrorCodePermissionDenied  ErrorCode = "PERMISSION_DENIED"
	ErrorCodeDestinationExists ErrorCode = "DESTINATION_EXISTS"
	ErrorCodeConnectionMissing ErrorCode = "CONNECTION_NOT_FOUND"
	ErrorCodeRemoteError       ErrorCode = "REMOTE_ERROR"
	ErrorCodeInvalidFile       ErrorCode = "INVALID_FILE"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message,omitempty"`
}

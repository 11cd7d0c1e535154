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
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when a connection id has no row.
	ErrNotFound = errors.New("connection not found")

	// ErrSettingNotFound is returned when a settings key has no row. Any
	// other settings error means the read itself failed.
	ErrSettingNotFound = errors.New("setting not found")
)

// Store persists connection records in sqlite.
type Store struct {
	db *gorm.DB

	// keyMu serializes first-use generation of the encryption key.
	keyMu sync.Mutex
}

// Open creates or opens the database under dataPath.
func Open(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	dbPath := filepath.Join(dataPath, "sftpgated.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := db.AutoMigrate(&Connection{}, &Setting{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// CreateConnection assigns an id and persists the record. The caller is
// responsible for encrypting the secret first.
func (s *Store) CreateConnection(c *Connection) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Port == 0 {
		c.Port = 22
	}
	if err := s.db.Create(c).Error; err != nil {
		return fmt.Errorf("create connection: %w", err)
	}
	return nil
}

// GetConnection fetches one record by id.
func (s *Store) GetConnection(id string) (*Connection, error) {
	var c Connection
	if err := s.db.First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return &c, nil
}

// ListConnections returns all records ordered by creation time.
func (s *Store) ListConnections() ([]Connection, error) {
	var conns []Connection
	if err := s.db.Order("created_at").Find(&conns).Error; err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return conns, nil
}

// DeleteConnection removes a record; deleting a missing id is a no-op.
func (s *Store) DeleteConnection(id string) error {
	if err := s.db.Delete(&Connection{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	return nil
}

// GetSetting reads one settings row. A missing key is ErrSettingNotFound;
// any other error is a failed read, not an absent row.
func (s *Store) GetSetting(key string) (string, error) {
	var row Setting
	if err := s.db.First(&row, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSettingNotFound
		}
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return row.Value, nil
}

// SetSetting upserts one settings row.
func (s *Store) SetSetting(key, value string) error {
	return s.db.Save(&Setting{Key: key, Value: value}).Error
}

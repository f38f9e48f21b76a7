// Copyright 2025 The Campaigner Authors
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

// Package store persists outreach contacts in SQLite. The store is the
// only state shared across campaign runs; the pipeline reads it and never
// writes during a run.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when a contact id does not exist.
	ErrNotFound = errors.New("contact not found")

	// ErrDuplicateAddress is returned when a contact's email or phone is
	// already registered to another contact.
	ErrDuplicateAddress = errors.New("contact with this email or phone already exists")

	// ErrNoAddress is returned when a contact carries neither an email
	// nor a phone handle.
	ErrNoAddress = errors.New("at least one of email or phone must be provided")
)

// Contact is a single outreach target. Email and Phone are nullable and
// each unique across all contacts; at least one must be present.
type Contact struct {
	ID    uint    `gorm:"primaryKey" json:"id"`
	Name  string  `gorm:"not null" json:"name"`
	Email *string `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone *string `gorm:"uniqueIndex" json:"phone,omitempty"`
}

// HasEmail reports whether the contact can be reached over email.
func (c Contact) HasEmail() bool { return c.Email != nil && *c.Email != "" }

// HasPhone reports whether the contact can be reached over a messaging handle.
func (c Contact) HasPhone() bool { return c.Phone != nil && *c.Phone != "" }

// Store wraps the contacts database.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open opens (creating if necessary) the SQLite database at path and
// migrates the contacts schema. Use ":memory:" for an ephemeral store.
func Open(path string, lg *zap.Logger) (*Store, error) {
	if lg == nil {
		lg = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	if err := db.AutoMigrate(&Contact{}); err != nil {
		return nil, fmt.Errorf("migrate contacts schema: %w", err)
	}

	return &Store{db: db, log: lg}, nil
}

// Create inserts a new contact and returns it with its assigned id.
func (s *Store) Create(ctx context.Context, contact Contact) (Contact, error) {
	normalize(&contact)
	if !contact.HasEmail() && !contact.HasPhone() {
		return Contact{}, ErrNoAddress
	}

	if err := s.db.WithContext(ctx).Create(&contact).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return Contact{}, ErrDuplicateAddress
		}
		return Contact{}, fmt.Errorf("create contact: %w", err)
	}

	s.log.Info("contact created",
		zap.Uint("id", contact.ID),
		zap.String("name", contact.Name))
	return contact, nil
}

// Get returns the contact with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id uint) (Contact, error) {
	var contact Contact
	err := s.db.WithContext(ctx).First(&contact, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Contact{}, ErrNotFound
	}
	if err != nil {
		return Contact{}, fmt.Errorf("get contact %d: %w", id, err)
	}
	return contact, nil
}

// List returns all contacts ordered by id.
func (s *Store) List(ctx context.Context) ([]Contact, error) {
	var contacts []Contact
	if err := s.db.WithContext(ctx).Order("id").Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// ListByIDs returns the contacts matching ids, in the order the ids were
// requested. Unknown ids are silently omitted.
func (s *Store) ListByIDs(ctx context.Context, ids []uint) ([]Contact, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []Contact
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("list contacts by ids: %w", err)
	}

	byID := make(map[uint]Contact, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	ordered := make([]Contact, 0, len(found))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// SeedExamples inserts the example contacts shipped with the service if
// their addresses are not present yet. Returns how many were added.
func (s *Store) SeedExamples(ctx context.Context) (int, error) {
	examples := []Contact{
		{Name: "Aditya Chan", Email: ptr("adityachannadelhi@gmail.com"), Phone: ptr("111-111-1111")},
		{Name: "King Chan", Email: ptr("kingchananacok@gmail.com"), Phone: ptr("222-222-2222")},
		{Name: "Test User NoEmail", Phone: ptr("333-333-3333")},
	}

	added := 0
	for _, example := range examples {
		_, err := s.Create(ctx, example)
		switch {
		case err == nil:
			added++
		case errors.Is(err, ErrDuplicateAddress):
			// already seeded
		default:
			return added, err
		}
	}
	return added, nil
}

// normalize trims whitespace and maps empty addresses to NULL so the
// unique indexes ignore them.
func normalize(c *Contact) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Email != nil {
		if v := strings.TrimSpace(*c.Email); v == "" {
			c.Email = nil
		} else {
			c.Email = &v
		}
	}
	if c.Phone != nil {
		if v := strings.TrimSpace(*c.Phone); v == "" {
			c.Phone = nil
		} else {
			c.Phone = &v
		}
	}
}

func ptr(s string) *string { return &s }

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

package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ImportReport summarizes a CSV import run.
type ImportReport struct {
	Created int           `json:"created"`
	Skipped int           `json:"skipped"`
	Errors  []ImportError `json:"errors,omitempty"`
}

// ImportError records why a single CSV row was not imported.
type ImportError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportCSV reads name,email,phone rows from r and creates a contact per
// row. A header row is detected and skipped. Rows that are duplicates or
// carry no address are reported per row and do not abort the import.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader) (ImportReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var report ImportReport
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, ImportError{Line: line, Reason: err.Error()})
			continue
		}
		if line == 1 && isHeader(record) {
			continue
		}
		if len(record) < 1 || strings.TrimSpace(record[0]) == "" {
			report.Skipped++
			report.Errors = append(report.Errors, ImportError{Line: line, Reason: "missing name"})
			continue
		}

		contact := Contact{Name: record[0]}
		if len(record) > 1 && strings.TrimSpace(record[1]) != "" {
			contact.Email = ptr(strings.TrimSpace(record[1]))
		}
		if len(record) > 2 && strings.TrimSpace(record[2]) != "" {
			contact.Phone = ptr(strings.TrimSpace(record[2]))
		}

		_, err = s.Create(ctx, contact)
		switch {
		case err == nil:
			report.Created++
		case errors.Is(err, ErrDuplicateAddress), errors.Is(err, ErrNoAddress):
			report.Skipped++
			report.Errors = append(report.Errors, ImportError{Line: line, Reason: err.Error()})
		default:
			return report, fmt.Errorf("import line %d: %w", line, err)
		}
	}
	return report, nil
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(record[0]))
	return first == "name"
}

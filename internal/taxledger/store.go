// Copyright 2021-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package taxledger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
)

// Store is the append-only tax-artifact directory spec.md §6 describes:
// `<cache>/tax_artifacts/<artifact_id>.json`, filename as primary key, plus
// an in-process index from allocation_id to its most recently written
// artifact (the "single pointer swap" spec.md §5 calls out — readers of the
// index never block a concurrent Save).
type Store struct {
	dir   string
	index sync.Map // allocation_id -> oracletypes.TaxArtifact
}

// NewStore opens (without yet creating) an artifact store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save writes artifact to <dir>/<artifact_id>.json and swaps the
// allocation_id index entry to point at it. Existing files are never
// overwritten with different content under the same name in normal
// operation, since artifact_id is content-derived by the caller; Save does
// not itself enforce that, matching the teacher's thin persistence layer.
func (s *Store) Save(artifact oracletypes.TaxArtifact) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("taxledger: creating artifact store: %w", err)
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("taxledger: encoding artifact %s: %w", artifact.ArtifactID, err)
	}
	path := filepath.Join(s.dir, artifact.ArtifactID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("taxledger: writing artifact %s: %w", artifact.ArtifactID, err)
	}
	s.index.Store(artifact.AllocationID, artifact)
	return nil
}

// LookupByAllocation returns the most recently saved artifact for
// allocationID from the in-process index, without touching disk.
func (s *Store) LookupByAllocation(allocationID string) (oracletypes.TaxArtifact, bool) {
	v, ok := s.index.Load(allocationID)
	if !ok {
		return oracletypes.TaxArtifact{}, false
	}
	return v.(oracletypes.TaxArtifact), true
}

// Load reads one artifact back off disk by artifact_id, bypassing the
// index — the path read/verify callers use when the index hasn't been
// warmed (e.g. a fresh process).
func (s *Store) Load(artifactID string) (oracletypes.TaxArtifact, error) {
	path := filepath.Join(s.dir, artifactID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return oracletypes.TaxArtifact{}, fmt.Errorf("taxledger: reading artifact %s: %w", artifactID, err)
	}
	var artifact oracletypes.TaxArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return oracletypes.TaxArtifact{}, fmt.Errorf("taxledger: decoding artifact %s: %w", artifactID, err)
	}
	return artifact, nil
}

// ExportAuditTrail writes every artifact currently on disk to w as a JSON
// array, sorted by artifact_id, for the store's housekeeping/backup use
// case (Supplemented Feature: audit trail export).
func (s *Store) ExportAuditTrail(w io.Writer) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			_, writeErr := io.WriteString(w, "[]")
			return writeErr
		}
		return fmt.Errorf("taxledger: listing artifact store: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}
	for i, name := range names {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return fmt.Errorf("taxledger: reading %s for audit export: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "]")
	return err
}

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

package taxledger_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
	"github.com/penny-vault/tax-oracle/internal/taxledger"
)

var _ = Describe("Store", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "tax_artifacts")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("saves an artifact to <dir>/<artifact_id>.json and reloads it", func() {
		store := taxledger.NewStore(dir)
		artifact := oracletypes.TaxArtifact{
			ArtifactID:   "art-1",
			AllocationID: "alloc-1",
			GeneratedAt:  time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC),
			Checksum:     "deadbeef",
		}
		Expect(store.Save(artifact)).To(Succeed())

		path := filepath.Join(dir, "art-1.json")
		Expect(path).To(BeAnExistingFile())

		loaded, err := store.Load("art-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.ArtifactID).To(Equal("art-1"))
		Expect(loaded.Checksum).To(Equal("deadbeef"))
	})

	It("indexes the most recently saved artifact per allocation_id in-process", func() {
		store := taxledger.NewStore(dir)
		first := oracletypes.TaxArtifact{ArtifactID: "art-1", AllocationID: "alloc-1", Checksum: "a"}
		second := oracletypes.TaxArtifact{ArtifactID: "art-2", AllocationID: "alloc-1", Checksum: "b"}
		Expect(store.Save(first)).To(Succeed())
		Expect(store.Save(second)).To(Succeed())

		found, ok := store.LookupByAllocation("alloc-1")
		Expect(ok).To(BeTrue())
		Expect(found.ArtifactID).To(Equal("art-2"))
	})

	It("reports a miss for an allocation_id never saved", func() {
		store := taxledger.NewStore(dir)
		_, ok := store.LookupByAllocation("missing")
		Expect(ok).To(BeFalse())
	})

	It("errors loading an artifact_id that was never saved", func() {
		store := taxledger.NewStore(dir)
		_, err := store.Load("nope")
		Expect(err).To(HaveOccurred())
	})

	It("exports every saved artifact as a sorted JSON array", func() {
		store := taxledger.NewStore(dir)
		Expect(store.Save(oracletypes.TaxArtifact{ArtifactID: "b", Checksum: "2"})).To(Succeed())
		Expect(store.Save(oracletypes.TaxArtifact{ArtifactID: "a", Checksum: "1"})).To(Succeed())

		var buf bytes.Buffer
		Expect(store.ExportAuditTrail(&buf)).To(Succeed())

		var decoded []oracletypes.TaxArtifact
		Expect(json.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())
		Expect(decoded).To(HaveLen(2))
		Expect(decoded[0].ArtifactID).To(Equal("a"))
		Expect(decoded[1].ArtifactID).To(Equal("b"))
	})

	It("exports an empty array when the store directory doesn't exist yet", func() {
		store := taxledger.NewStore(filepath.Join(dir, "never-created"))
		var buf bytes.Buffer
		Expect(store.ExportAuditTrail(&buf)).To(Succeed())
		Expect(buf.String()).To(Equal("[]"))
	})
})

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Qosmos Contributors

//go:build e2e

package e2e_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/AerafalDev/Qosmos/pkg/pluginapi"
)

var _ = Describe("Plugin lifecycle end-to-end scenarios", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("1. Linear chain", func() {
		It("loads A, B, C in dependency order and enables all three", func() {
			h := newHarness()
			Expect(h.registerUnit("A", "")).To(Succeed())
			Expect(h.registerUnit("B", "", dependsOn("A"))).To(Succeed())
			Expect(h.registerUnit("C", "", dependsOn("B"))).To(Succeed())

			Expect(h.svc.LoadAll(ctx)).To(Succeed())

			for _, name := range []string{"A", "B", "C"} {
				inst, ok := h.svc.Instance(mustIdentifier("core", name))
				Expect(ok).To(BeTrue(), "instance %s should exist", name)
				Expect(inst.State()).To(Equal(pluginapi.StateEnabled))
			}
			Expect(h.log.snapshot()).To(Equal([]string{
				"A:setup", "B:setup", "C:setup",
				"A:start", "B:start", "C:start",
			}))
		})
	})

	Describe("2. Optional dependency reordering", func() {
		It("orders Y after X when X is present", func() {
			h := newHarness()
			Expect(h.registerUnit("X", "")).To(Succeed())
			Expect(h.registerUnit("Y", "", optionallyDependsOn("X"))).To(Succeed())

			Expect(h.svc.LoadAll(ctx)).To(Succeed())

			Expect(h.log.snapshot()).To(Equal([]string{"X:setup", "Y:setup", "X:start", "Y:start"}))
		})

		It("still enables Y when the optional dependency X is absent", func() {
			h := newHarness()
			Expect(h.registerUnit("Y", "", optionallyDependsOn("X"))).To(Succeed())

			Expect(h.svc.LoadAll(ctx)).To(Succeed())

			inst, ok := h.svc.Instance(mustIdentifier("core", "Y"))
			Expect(ok).To(BeTrue())
			Expect(inst.State()).To(Equal(pluginapi.StateEnabled))
			Expect(h.log.snapshot()).To(Equal([]string{"Y:setup", "Y:start"}))
		})
	})

	Describe("3. loadBefore flip", func() {
		It("orders Early before Late even without an explicit dependency", func() {
			h := newHarness()
			Expect(h.registerUnit("Early", "", loadBefore("Late"))).To(Succeed())
			Expect(h.registerUnit("Late", "")).To(Succeed())

			Expect(h.svc.LoadAll(ctx)).To(Succeed())

			Expect(h.log.snapshot()).To(Equal([]string{"Early:setup", "Late:setup", "Early:start", "Late:start"}))
		})
	})

	Describe("4. Cycle detection", func() {
		It("raises a diagnostic naming both identifiers and creates no instance", func() {
			h := newHarness()
			Expect(h.registerUnit("P1", "", dependsOn("P2"))).To(Succeed())
			Expect(h.registerUnit("P2", "", dependsOn("P1"))).To(Succeed())

			err := h.svc.LoadAll(ctx)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("core:P1"))
			Expect(err.Error()).To(ContainSubstring("core:P2"))

			_, ok := h.svc.Instance(mustIdentifier("core", "P1"))
			Expect(ok).To(BeFalse())
			_, ok = h.svc.Instance(mustIdentifier("core", "P2"))
			Expect(ok).To(BeFalse())
			Expect(h.log.snapshot()).To(BeEmpty())
		})
	})

	Describe("5. Missing required dependency", func() {
		It("raises a diagnostic naming the missing dependency and creates no instance", func() {
			h := newHarness()
			Expect(h.registerUnit("Q", "", dependsOn("Missing"))).To(Succeed())

			err := h.svc.LoadAll(ctx)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("core:Q"))
			Expect(err.Error()).To(ContainSubstring("core:Missing"))

			_, ok := h.svc.Instance(mustIdentifier("core", "Q"))
			Expect(ok).To(BeFalse())
		})
	})

	Describe("6. Fault isolation", func() {
		It("keeps Good enabled when Bad's setup fails, and excludes Bad from the live map", func() {
			h := newHarness()
			Expect(h.registerUnit("Good", "")).To(Succeed())
			Expect(h.registerUnit("Bad", "setup")).To(Succeed())

			Expect(h.svc.LoadAll(ctx)).To(Succeed())

			good, ok := h.svc.Instance(mustIdentifier("core", "Good"))
			Expect(ok).To(BeTrue())
			Expect(good.State()).To(Equal(pluginapi.StateEnabled))

			_, ok = h.svc.Instance(mustIdentifier("core", "Bad"))
			Expect(ok).To(BeFalse(), "Bad should be absent from the live map once setup+start has completed")

			Expect(h.log.snapshot()).To(ContainElement("Good:setup"))
			Expect(h.log.snapshot()).To(ContainElement("Good:start"))
			Expect(h.log.snapshot()).NotTo(ContainElement("Bad:start"))
		})
	})
})

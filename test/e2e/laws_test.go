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

var _ = Describe("Testable laws", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("load-order determinism", func() {
		It("yields the same setup order across repeated runs of an identical diamond", func() {
			build := func() []string {
				h := newHarness()
				Expect(h.registerUnit("root", "")).To(Succeed())
				Expect(h.registerUnit("left", "", dependsOn("root"))).To(Succeed())
				Expect(h.registerUnit("right", "", dependsOn("root"))).To(Succeed())
				Expect(h.registerUnit("leaf", "", dependsOn("left", "right"))).To(Succeed())
				Expect(h.svc.LoadAll(ctx)).To(Succeed())
				return h.log.snapshot()
			}

			first := build()
			second := build()
			Expect(second).To(Equal(first))
		})
	})

	Describe("reload equivalence", func() {
		It("leaves a plugin Enabled again after Reload, same as it was before", func() {
			h := newHarness()
			Expect(h.registerUnit("base", "")).To(Succeed())
			Expect(h.registerUnit("dependent", "")).To(Succeed())
			Expect(h.svc.LoadAll(ctx)).To(Succeed())

			id := mustIdentifier("core", "dependent")
			before, ok := h.svc.Instance(id)
			Expect(ok).To(BeTrue())
			Expect(before.State()).To(Equal(pluginapi.StateEnabled))

			ok, err := h.svc.Reload(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			after, found := h.svc.Instance(id)
			Expect(found).To(BeTrue())
			Expect(after.State()).To(Equal(pluginapi.StateEnabled))
		})

		It("rejects reloading a plugin a live dependent still requires", func() {
			h := newHarness()
			Expect(h.registerUnit("base", "")).To(Succeed())
			Expect(h.registerUnit("dependent", "", dependsOn("base"))).To(Succeed())
			Expect(h.svc.LoadAll(ctx)).To(Succeed())

			ok, err := h.svc.Reload(ctx, mustIdentifier("core", "base"))
			Expect(err).To(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("shutdown drains the live map", func() {
		It("leaves no instances queryable after Shutdown", func() {
			h := newHarness()
			Expect(h.registerUnit("alpha", "")).To(Succeed())
			Expect(h.registerUnit("beta", "", dependsOn("alpha"))).To(Succeed())
			Expect(h.svc.LoadAll(ctx)).To(Succeed())

			outcomes := h.svc.Shutdown(ctx)
			Expect(outcomes).To(HaveLen(2))
			for _, outcome := range outcomes {
				Expect(outcome.Err).NotTo(HaveOccurred())
			}

			_, ok := h.svc.Instance(mustIdentifier("core", "alpha"))
			Expect(ok).To(BeFalse())
			_, ok = h.svc.Instance(mustIdentifier("core", "beta"))
			Expect(ok).To(BeFalse())
		})
	})
})

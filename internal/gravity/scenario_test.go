package gravity_test

import (
	"context"
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bamdow/folio/internal/config"
	"github.com/bamdow/folio/internal/dom"
	"github.com/bamdow/folio/internal/dom/memdom"
	"github.com/bamdow/folio/internal/frame"
	"github.com/bamdow/folio/internal/gravity"
)

var _ = Describe("A gravity session over a portfolio page", func() {
	var (
		ctx    context.Context
		doc    *memdom.Document
		frames *frame.Manual
		ctrl   *gravity.Controller
		before map[string]string
	)

	tracked := []string{"nav h1", "main h2", "main p:nth-of-type(1)", "main p:nth-of-type(3)", "main a", "main img"}

	styleOf := func(sel string) string {
		n, ok := doc.Find(sel)
		Expect(ok).To(BeTrue(), sel)
		text, present := doc.Style(n.Ref)
		if !present {
			return "<none>"
		}
		return text
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		doc, err = memdom.Open("testdata/scenario.html")
		Expect(err).NotTo(HaveOccurred())

		cfg := config.DefaultConfig()
		cfg.Force.ArmDelay = 0
		cfg.Teardown.Transition = 25 * time.Millisecond

		frames = frame.NewManual()
		ctrl, err = gravity.NewController(doc, frames, cfg,
			gravity.WithoutRunner(),
			gravity.WithRand(rand.New(rand.NewSource(7))))
		Expect(err).NotTo(HaveOccurred())

		before = make(map[string]string)
		for _, sel := range tracked {
			before[sel] = styleOf(sel)
		}
	})

	Context("when triggered", func() {
		BeforeEach(func() {
			ok, err := ctrl.Trigger(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		AfterEach(func() {
			done, err := ctrl.Reset(ctx)
			Expect(err).NotTo(HaveOccurred())
			Eventually(done).Should(BeClosed())
		})

		It("creates one body per visible text element", func() {
			Expect(ctrl.BodyCount()).To(Equal(5))
		})

		It("fades the large image instead of simulating it", func() {
			Expect(dom.StyleValue(styleOf("main img"), "opacity")).To(Equal("0"))
		})

		It("locks the page at its pre-trigger height", func() {
			Expect(doc.BodyStyle()).To(Equal("height: 2000px; overflow: hidden;"))
		})

		It("ignores a second trigger", func() {
			ok, err := ctrl.Trigger(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(ctrl.BodyCount()).To(Equal(5))
		})

		It("pushes near bodies outward and leaves far ones alone", func() {
			near, _ := doc.Find("main h2")
			far, _ := doc.Find("main p:nth-of-type(3)")

			kicks := ctrl.PointerDown(dom.PointerEvent{ClientX: 250, ClientY: 20, ScrollY: 300})

			refs := make(map[string]gravity.Kick)
			for _, k := range kicks {
				refs[k.Ref] = k
			}
			Expect(refs).To(HaveKey(near.Ref))
			Expect(refs[near.Ref].Distance).To(BeNumerically("~", 100, 1e-9))
			Expect(refs[near.Ref].Impulse.Y).To(BeNumerically(">", 0))
			Expect(refs).NotTo(HaveKey(far.Ref))
		})

		It("mirrors the simulation into transforms every frame", func() {
			for i := 0; i < 10; i++ {
				ctrl.Step(1.0 / 60)
				Expect(frames.Frame()).To(Equal(1))
			}
			Expect(dom.StyleValue(styleOf("main h2"), "transform")).To(HavePrefix("translate("))
			Expect(dom.StyleValue(styleOf("main h2"), "left")).To(Equal("100px"))
		})
	})

	Context("when reset after a session", func() {
		It("restores every tracked element byte for byte", func() {
			ok, err := ctrl.Trigger(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			for i := 0; i < 60; i++ {
				ctrl.Step(1.0 / 60)
				frames.Frame()
			}
			ctrl.PointerDown(dom.PointerEvent{ClientX: 250, ClientY: 20, ScrollY: 300})
			doc.SetScroll(0, 0)

			done, err := ctrl.Reset(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ctrl.BodyCount()).To(BeZero())
			Consistently(done, 10*time.Millisecond).ShouldNot(BeClosed())
			Eventually(done).Should(BeClosed())

			for _, sel := range tracked {
				Expect(styleOf(sel)).To(Equal(before[sel]), sel)
			}
			m, _ := doc.Metrics(ctx)
			Expect(m.ScrollY).To(Equal(300.0))
			Expect(doc.BodyStyle()).To(BeEmpty())
			Expect(ctrl.Active()).To(BeFalse())
		})
	})

	Context("when reset with no session", func() {
		It("does not touch the page", func() {
			done, err := ctrl.Reset(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeClosed())
			Expect(doc.Mutations()).To(BeEmpty())
		})
	})
})

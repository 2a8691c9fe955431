package browser_test

import (
	"context"
	"time"

	"github.com/Peripli/feature-browser/pkg/browser"
	"github.com/Peripli/feature-browser/pkg/sapi"
	"github.com/gofrs/uuid"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Registry", func() {
	var (
		ctx      context.Context
		cancel   context.CancelFunc
		atlas    *fakeAtlas
		settings *browser.Settings
		registry *browser.Registry
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		atlas = newFakeAtlas(map[string]int{"Receptor": 3})
		settings = browser.DefaultSettings()
	})

	JustBeforeEach(func() {
		client, err := sapi.NewClient(atlas.settings())
		Expect(err).ToNot(HaveOccurred())
		registry = browser.NewRegistry(ctx, client, settings)
	})

	AfterEach(func() {
		registry.Close()
		cancel()
		atlas.Close()
	})

	It("creates sessions with unique ids", func() {
		first, err := registry.Create(ctx, browser.Selection{Parcellation: "julich", Region: "hoc1"})
		Expect(err).ToNot(HaveOccurred())
		second, err := registry.Create(ctx, browser.Selection{})
		Expect(err).ToNot(HaveOccurred())

		Expect(first.ID).ToNot(Equal(second.ID))
		_, err = uuid.FromString(first.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(registry.Len()).To(Equal(2))

		found, ok := registry.Get(first.ID)
		Expect(ok).To(BeTrue())
		Expect(found).To(BeIdenticalTo(first))
	})

	It("closes deleted sessions", func() {
		session, err := registry.Create(ctx, browser.Selection{})
		Expect(err).ToNot(HaveOccurred())

		Expect(registry.Delete(session.ID)).To(BeTrue())
		Expect(registry.Delete(session.ID)).To(BeFalse())
		_, ok := registry.Get(session.ID)
		Expect(ok).To(BeFalse())
		Expect(session.Context().Err()).To(HaveOccurred())
	})

	It("does not keep sessions that failed to be created", func() {
		atlas.Close()
		_, err := registry.Create(ctx, browser.Selection{})
		Expect(err).To(HaveOccurred())
		Expect(registry.Len()).To(Equal(0))
	})

	Context("when sessions expire", func() {
		BeforeEach(func() {
			settings.SessionTTL = 50 * time.Millisecond
		})

		It("sweeps and closes them", func() {
			session, err := registry.Create(ctx, browser.Selection{})
			Expect(err).ToNot(HaveOccurred())

			time.Sleep(100 * time.Millisecond)
			registry.Run()

			Expect(registry.Len()).To(Equal(0))
			Expect(session.Context().Err()).To(HaveOccurred())
		})

		It("keeps sessions that are accessed", func() {
			session, err := registry.Create(ctx, browser.Selection{})
			Expect(err).ToNot(HaveOccurred())

			for i := 0; i < 4; i++ {
				time.Sleep(20 * time.Millisecond)
				_, ok := registry.Get(session.ID)
				Expect(ok).To(BeTrue())
			}
			registry.Sweep()

			Expect(registry.Len()).To(Equal(1))
			Expect(session.Context().Err()).ToNot(HaveOccurred())
		})
	})

	It("closes sessions when its context is done", func() {
		session, err := registry.Create(ctx, browser.Selection{})
		Expect(err).ToNot(HaveOccurred())

		cancel()
		Eventually(session.Context().Done()).Should(BeClosed())
	})
})

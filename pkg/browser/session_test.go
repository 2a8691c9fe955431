package browser_test

import (
	"context"
	"net/http"

	"github.com/Peripli/feature-browser/pkg/browser"
	"github.com/Peripli/feature-browser/pkg/pullable"
	"github.com/Peripli/feature-browser/pkg/sapi"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"github.com/pkg/errors"
)

var _ = Describe("Session", func() {
	var (
		ctx       context.Context
		atlas     *fakeAtlas
		client    sapi.Client
		settings  *browser.Settings
		selection browser.Selection
		session   *browser.Session
	)

	BeforeEach(func() {
		ctx = context.Background()
		atlas = newFakeAtlas(map[string]int{"Receptor": 3, "Connectivity": 1})
		settings = browser.DefaultSettings()
		selection = browser.Selection{Parcellation: "julich", Region: "hoc1"}

		var err error
		client, err = sapi.NewClient(atlas.settings())
		Expect(err).ToNot(HaveOccurred())
	})

	JustBeforeEach(func() {
		var err error
		session, err = browser.NewSession(ctx, "session-1", client, selection, settings)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		session.Close()
		atlas.Close()
	})

	It("groups the feature types the selection provides parameters for", func() {
		categories := session.Categories()
		Expect(categories).To(HaveLen(2))
		Expect(categories[0].Name).To(Equal("molecular"))
		Expect(categories[0].Types[0].Name).To(Equal("Receptor"))
		Expect(categories[1].Name).To(Equal("connectivity"))
	})

	It("has a data source per feature type", func() {
		source, err := session.DataSource("Receptor")
		Expect(err).ToNot(HaveOccurred())
		Expect(source.Len()).To(Equal(0))

		_, err = session.DataSource("Image")
		Expect(errors.Is(err, browser.ErrUnknownFeatureType)).To(BeTrue())
	})

	It("pulls on scroll with the selection as query", func() {
		Expect(session.OnScroll(ctx, "Receptor", 0, 0)).To(Succeed())

		source, _ := session.DataSource("Receptor")
		Expect(source.Len()).To(Equal(2))
		Expect(atlas.queriesOf("Receptor")).To(ConsistOf("page=1&parcellation_id=julich&region_id=hoc1&size=2"))
		Expect(session.Totals()).To(Equal(3))
	})

	It("does not pull on scroll while enough features remain", func() {
		Expect(session.OnScroll(ctx, "Receptor", 0, 0)).To(Succeed())
		Expect(session.OnScroll(ctx, "Receptor", 0, 1)).To(Succeed())

		Expect(atlas.queriesOf("Receptor")).To(HaveLen(1))
	})

	It("fails to scroll unknown feature types", func() {
		Expect(session.OnScroll(ctx, "Image", 0, 0)).To(MatchError(ContainSubstring("unknown feature type")))
	})

	It("pulls all features in category and type order", func() {
		Expect(session.PullAll(ctx)).To(Succeed())

		features := session.Features()
		ids := make([]string, 0, len(features))
		for _, feature := range features {
			ids = append(ids, feature.ID)
		}
		Expect(ids).To(Equal([]string{"Receptor-0", "Receptor-1", "Receptor-2", "Connectivity-0"}))
		Expect(session.Totals()).To(Equal(4))
		Expect(atlas.queriesOf("Receptor")).To(HaveLen(2))
		Expect(session.Busy()).To(BeFalse())
	})

	It("reports busy while a data source is pulling", func() {
		release := atlas.blockFeatures()
		done := session.StartPullAll()

		Eventually(session.Busy).Should(BeTrue())
		Expect(session.StartPullAll()).To(Equal(done))
		close(release)

		Eventually(done).Should(BeClosed())
		Expect(session.Busy()).To(BeFalse())
		Expect(session.Features()).To(HaveLen(4))
	})

	It("cancels pending pulls on close", func() {
		atlas.blockFeatures()
		done := session.StartPullAll()
		Eventually(session.Busy).Should(BeTrue())

		session.Close()

		Eventually(done).Should(BeClosed())
		Expect(session.Context().Err()).To(HaveOccurred())
		source, _ := session.DataSource("Receptor")
		Expect(source.Pull(ctx)).To(MatchError(pullable.ErrClosed))
	})

	Context("when a feature listing fails", func() {
		BeforeEach(func() {
			atlas.featureCount = map[string]int{"Receptor": 3}
		})

		It("returns the error of the failing drain", func() {
			Expect(session.PullAll(ctx)).To(MatchError(ContainSubstring("1 errors occurred")))
			Expect(session.Features()).To(HaveLen(3))
		})
	})
})

var _ = Describe("NewSession", func() {
	It("fails when the feature types cannot be listed", func() {
		server := ghttp.NewServer()
		defer server.Close()
		server.AppendHandlers(ghttp.RespondWith(http.StatusServiceUnavailable, `{"error":"maintenance"}`))

		settings := sapi.DefaultSettings()
		settings.URL = server.URL()
		client, err := sapi.NewClient(settings)
		Expect(err).ToNot(HaveOccurred())

		_, err = browser.NewSession(context.Background(), "session-1", client, browser.Selection{}, browser.DefaultSettings())
		Expect(err).To(MatchError(ContainSubstring("could not create session session-1")))
	})
})

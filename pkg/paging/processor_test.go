package paging_test

import (
	"context"
	"fmt"

	"github.com/Peripli/feature-browser/pkg/paging"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type slicePager struct {
	bodies []string
	index  int
	err    error
}

func (p *slicePager) Next(ctx context.Context) (*paging.Page, error) {
	if p.err != nil {
		return nil, p.err
	}
	page, err := paging.ParsePage([]byte(p.bodies[p.index]))
	p.index++
	return page, err
}

func (p *slicePager) HasNext() bool {
	return p.index < len(p.bodies)
}

var _ = Describe("PageProcessor", func() {
	var (
		ctx       context.Context
		pager     *slicePager
		processor *paging.PageProcessor
		processed []int
	)

	collect := func(page *paging.Page) error {
		processed = append(processed, page.Number)
		return nil
	}

	BeforeEach(func() {
		ctx = context.Background()
		processed = nil
		pager = &slicePager{bodies: []string{
			`{"items":[1],"page":1,"pages":3}`,
			`{"items":[2],"page":2,"pages":3}`,
			`{"items":[3],"page":3,"pages":3}`,
		}}
		processor = &paging.PageProcessor{Pager: pager}
	})

	It("processes every page in order", func() {
		Expect(processor.Process(ctx, collect)).To(Succeed())
		Expect(processed).To(Equal([]int{1, 2, 3}))
	})

	It("stops when processing a page fails", func() {
		err := processor.Process(ctx, func(page *paging.Page) error {
			return fmt.Errorf("cannot process page %d", page.Number)
		})
		Expect(err).To(MatchError("cannot process page 1"))
		Expect(pager.index).To(Equal(1))
	})

	It("wraps fetch errors", func() {
		pager.err = fmt.Errorf("timeout")
		err := processor.Process(ctx, collect)
		Expect(err).To(MatchError(ContainSubstring("error during page fetch: timeout")))
	})

	It("returns the context error when cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		Expect(processor.Process(cancelled, collect)).To(MatchError(context.Canceled))
		Expect(processed).To(BeEmpty())
	})
})

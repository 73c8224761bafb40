package aggregator_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/news-aggregator/internal/aggregator"
	"github.com/angeloszaimis/news-aggregator/internal/provider"
)

func collect(events <-chan aggregator.StreamEvent) []aggregator.StreamEvent {
	var got []aggregator.StreamEvent
	for e := range events {
		got = append(got, e)
	}
	return got
}

var _ = Describe("AggregateStream", func() {
	params := provider.SearchParams{Query: "AAPL"}

	It("should reject an invalid query without producing a channel", func() {
		agg := newAggregator(succeeding("a", 1))

		events, err := agg.AggregateStream(context.Background(), provider.SearchParams{})
		Expect(err).To(HaveOccurred())
		Expect(events).To(BeNil())
	})

	It("should emit start, one result per provider, then complete", func() {
		agg := newAggregator(
			succeeding("alpha", 2),
			timingOut("beta"),
			succeeding("gamma", 1),
		)
		agg.Breaker("gamma").ForceOpen()

		events, err := agg.AggregateStream(context.Background(), params)
		Expect(err).NotTo(HaveOccurred())

		got := collect(events)
		Expect(got).To(HaveLen(5))

		Expect(got[0].Type).To(Equal(aggregator.StreamStart))
		Expect(got[0].Query).To(Equal("AAPL"))
		Expect(got[0].Providers).To(Equal([]string{"alpha", "beta", "gamma"}))

		Expect(got[1].Type).To(Equal(aggregator.StreamProviderResult))
		Expect(got[1].Provider).To(Equal("alpha"))
		Expect(got[1].Status).To(Equal(aggregator.StatusSuccess))
		Expect(got[1].ArticlesCount).To(Equal(2))

		Expect(got[2].Provider).To(Equal("beta"))
		Expect(got[2].Status).To(Equal(aggregator.StatusFailed))
		Expect(got[2].Error).To(ContainSubstring("timeout"))

		Expect(got[3].Provider).To(Equal("gamma"))
		Expect(got[3].Status).To(Equal(aggregator.StatusFailed))
		Expect(got[3].CircuitOpen).To(BeTrue())

		Expect(got[4].Type).To(Equal(aggregator.StreamComplete))
		Expect(got[4].TotalDuration).To(BeNumerically(">", 0))
	})

	It("should emit results in registration order even when a later provider finishes first", func() {
		slowDone := make(chan struct{})
		slow := &fakeProvider{
			name:       "aaa",
			configured: true,
			searchFn: func(ctx context.Context, params provider.SearchParams) (*provider.NewsResult, error) {
				<-slowDone
				return &provider.NewsResult{Status: "ok"}, nil
			},
		}
		fast := succeeding("zzz", 1)

		agg := newAggregator(slow, fast)

		events, err := agg.AggregateStream(context.Background(), params)
		Expect(err).NotTo(HaveOccurred())

		Expect((<-events).Type).To(Equal(aggregator.StreamStart))

		// The fast provider has settled, but nothing may be emitted until
		// the first registered provider finishes.
		Consistently(events, 50*time.Millisecond).ShouldNot(Receive())

		close(slowDone)

		Expect((<-events).Provider).To(Equal("aaa"))
		Expect((<-events).Provider).To(Equal("zzz"))
		Expect((<-events).Type).To(Equal(aggregator.StreamComplete))
	})

	It("should record emitted outcomes in the statistics", func() {
		agg := newAggregator(succeeding("a", 1), timingOut("b"))

		events, err := agg.AggregateStream(context.Background(), params)
		Expect(err).NotTo(HaveOccurred())
		collect(events)

		stats := agg.Statistics()
		Expect(stats.Providers["a"].SuccessCount).To(Equal(int64(1)))
		Expect(stats.Providers["b"].FailureCount).To(Equal(int64(1)))
	})

	It("should close the channel early when the context is cancelled", func() {
		blocked := make(chan struct{})
		defer close(blocked)

		stuck := &fakeProvider{
			name:       "stuck",
			configured: true,
			searchFn: func(ctx context.Context, params provider.SearchParams) (*provider.NewsResult, error) {
				select {
				case <-blocked:
				case <-ctx.Done():
				}
				return nil, errors.New("abandoned")
			},
		}

		ctx, cancel := context.WithCancel(context.Background())

		agg := newAggregator(stuck)

		events, err := agg.AggregateStream(ctx, params)
		Expect(err).NotTo(HaveOccurred())

		Expect((<-events).Type).To(Equal(aggregator.StreamStart))

		cancel()
		Eventually(events).Should(BeClosed())
	})
})

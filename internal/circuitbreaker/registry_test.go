package circuitbreaker_test

import (
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/news-aggregator/internal/circuitbreaker"
)

var _ = Describe("Registry", func() {
	var registry *circuitbreaker.Registry

	settings := circuitbreaker.Settings{
		FailureThreshold: 2,
		RecoveryTimeout:  50 * time.Millisecond,
		MonitoringWindow: time.Minute,
		MinimumRequests:  1,
	}

	BeforeEach(func() {
		registry = circuitbreaker.NewRegistry(settings, nil)
	})

	Describe("GetBreaker", func() {
		It("should create a new breaker for an unknown provider", func() {
			cb := registry.GetBreaker("newsapi")
			Expect(cb).NotTo(BeNil())
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("should return the same breaker for the same provider", func() {
			cb1 := registry.GetBreaker("newsapi")
			cb2 := registry.GetBreaker("newsapi")
			Expect(cb1).To(BeIdenticalTo(cb2))
		})

		It("should return different breakers for different providers", func() {
			cb1 := registry.GetBreaker("newsapi")
			cb2 := registry.GetBreaker("guardian")
			Expect(cb1).NotTo(BeIdenticalTo(cb2))
		})

		It("should apply the registry settings to new breakers", func() {
			cb := registry.GetBreaker("newsapi")

			fail(cb)
			fail(cb)
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})

		It("should wire the shared state-change callback", func() {
			var mu sync.Mutex
			var opened []string

			registry = circuitbreaker.NewRegistry(settings, func(e circuitbreaker.Event) {
				if e.To == circuitbreaker.StateOpen {
					mu.Lock()
					opened = append(opened, e.Provider)
					mu.Unlock()
				}
			})

			cb := registry.GetBreaker("guardian")
			fail(cb)
			fail(cb)

			mu.Lock()
			defer mu.Unlock()
			Expect(opened).To(ConsistOf("guardian"))
		})
	})

	Describe("Concurrent access", func() {
		It("should handle concurrent GetBreaker calls safely", func() {
			const goroutines = 100

			var wg sync.WaitGroup
			wg.Add(goroutines)

			for i := 0; i < goroutines; i++ {
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					cb := registry.GetBreaker("newsapi")
					Expect(cb).NotTo(BeNil())
				}()
			}

			wg.Wait()

			Expect(registry.Snapshots()).To(HaveLen(1))
		})

		It("should handle concurrent executions on the same breaker", func() {
			const goroutines = 50

			var wg sync.WaitGroup
			wg.Add(goroutines * 2)

			cb := registry.GetBreaker("newsapi")

			for i := 0; i < goroutines; i++ {
				go func() {
					defer wg.Done()
					fail(cb)
				}()
				go func() {
					defer wg.Done()
					succeed(cb)
				}()
			}

			wg.Wait()

			state := cb.State()
			Expect(state).To(BeElementOf(
				circuitbreaker.StateClosed,
				circuitbreaker.StateOpen,
				circuitbreaker.StateHalfOpen,
			))
		})
	})

	Describe("ResetAll", func() {
		It("should close every breaker and clear failure history", func() {
			cb1 := registry.GetBreaker("newsapi")
			cb2 := registry.GetBreaker("guardian")

			fail(cb1)
			fail(cb1)
			fail(cb2)
			fail(cb2)
			Expect(cb1.State()).To(Equal(circuitbreaker.StateOpen))
			Expect(cb2.State()).To(Equal(circuitbreaker.StateOpen))

			registry.ResetAll()

			Expect(cb1.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb2.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(succeed(cb1)).NotTo(HaveOccurred())
		})
	})

	Describe("Snapshots", func() {
		It("should report the state of all breakers", func() {
			registry.GetBreaker("newsapi")
			cb2 := registry.GetBreaker("guardian")

			fail(cb2)
			fail(cb2)

			snapshots := registry.Snapshots()
			Expect(snapshots).To(HaveLen(2))
			Expect(snapshots["newsapi"].State).To(Equal("CLOSED"))
			Expect(snapshots["guardian"].State).To(Equal("OPEN"))
		})
	})
})

var _ = Describe("OpenError", func() {
	It("should describe the cool-down when one is pending", func() {
		err := &circuitbreaker.OpenError{Provider: "newsapi", RetryIn: time.Second}
		Expect(err.Error()).To(ContainSubstring("newsapi"))
		Expect(err.Error()).To(ContainSubstring("retry in"))
	})

	It("should describe an in-flight probe", func() {
		err := &circuitbreaker.OpenError{Provider: "newsapi"}
		Expect(err.Error()).To(ContainSubstring("probe in flight"))
	})

	It("should be detectable through wrapping", func() {
		wrapped := errors.Join(errors.New("outer"), &circuitbreaker.OpenError{Provider: "x"})
		var openErr *circuitbreaker.OpenError
		Expect(errors.As(wrapped, &openErr)).To(BeTrue())
	})
})

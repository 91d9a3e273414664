package calendar_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/metrics"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubReader struct {
	rows  []calendar.ApprovedLeave
	err   error
	calls int
}

func (r *stubReader) ListApproved(context.Context) ([]calendar.ApprovedLeave, error) {
	r.calls++
	return r.rows, r.err
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *mapCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(string(c.data[key]), 10, 64)
	n++
	c.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// gatedReader parks ListApproved after taking its snapshot until release is
// closed.
type gatedReader struct {
	mu      sync.Mutex
	rows    []calendar.ApprovedLeave
	entered chan struct{}
	release chan struct{}
}

func newGatedReader() *gatedReader {
	return &gatedReader{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (r *gatedReader) ListApproved(context.Context) ([]calendar.ApprovedLeave, error) {
	r.mu.Lock()
	snapshot := append([]calendar.ApprovedLeave(nil), r.rows...)
	r.mu.Unlock()

	select {
	case r.entered <- struct{}{}:
	default:
	}
	<-r.release
	return snapshot, nil
}

func (r *gatedReader) approve(l calendar.ApprovedLeave) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, l)
}

func cacheLookups(m *metrics.Collector, result string) float64 {
	families, err := m.Registry().Gather()
	Expect(err).NotTo(HaveOccurred())
	for _, mf := range families {
		if mf.GetName() != "leave_calendar_cache_lookups_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "result" && label.GetValue() == result {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

var _ = Describe("Calendar Service", func() {
	var (
		ctx       context.Context
		reader    *stubReader
		store     *mapCache
		collector *metrics.Collector
		service   *calendar.Service
		employee  *user.Principal
	)

	BeforeEach(func() {
		ctx = context.Background()
		reader = &stubReader{rows: []calendar.ApprovedLeave{
			{ID: 1, EmployeeID: 2, LeaveType: "vacation", StartDate: day("2025-07-01"), EndDate: day("2025-07-02"), FirstName: "Alex"},
		}}
		store = newMapCache()
		collector = metrics.New()
		service = calendar.NewService(reader, store, time.Minute, collector, slog.New(slog.NewTextHandler(io.Discard, nil)))
		employee = &user.Principal{ID: 2, Role: user.RoleEmployee}
	})

	It("lets any authenticated role read the calendar", func() {
		events, err := service.Events(ctx, employee)
		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(HaveLen(1))
		Expect(events[0].Title).To(Equal("Alex - Vacation"))

		_, err = service.Events(ctx, &user.Principal{ID: 9, Role: user.RoleManager})
		Expect(err).NotTo(HaveOccurred())
	})

	It("refuses anonymous callers", func() {
		_, err := service.Events(ctx, nil)
		Expect(err).To(MatchError(internal.ErrUnauthenticated))
		Expect(reader.calls).To(BeZero())
	})

	It("serves repeat reads from the cache", func() {
		first, err := service.Events(ctx, employee)
		Expect(err).NotTo(HaveOccurred())
		second, err := service.Events(ctx, employee)
		Expect(err).NotTo(HaveOccurred())

		Expect(second).To(Equal(first))
		Expect(reader.calls).To(Equal(1))
		Expect(store.ttls).To(ContainElement(time.Minute))
		Expect(cacheLookups(collector, "miss")).To(Equal(1.0))
		Expect(cacheLookups(collector, "hit")).To(Equal(1.0))
	})

	It("rebuilds after an approval invalidates the feed", func() {
		_, err := service.Events(ctx, employee)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.has("calendar:events:approved:0")).To(BeTrue())

		approved := events.NewLeaveApprovedEvent(5, 2, 9, "sick", 1)
		Expect(service.HandleLeaveApproved(ctx, approved)).To(Succeed())
		Expect(store.has("calendar:events:approved:0")).To(BeFalse())

		_, err = service.Events(ctx, employee)
		Expect(err).NotTo(HaveOccurred())
		Expect(reader.calls).To(Equal(2))
		Expect(store.has("calendar:events:approved:1")).To(BeTrue())
	})

	It("does not keep a feed read before an approval landed", func() {
		gated := newGatedReader()
		racing := calendar.NewService(gated, store, time.Minute, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

		done := make(chan []calendar.Event, 1)
		go func() {
			defer GinkgoRecover()
			evs, err := racing.Events(ctx, employee)
			Expect(err).NotTo(HaveOccurred())
			done <- evs
		}()
		Eventually(gated.entered).Should(Receive())

		gated.approve(calendar.ApprovedLeave{
			ID: 7, EmployeeID: 2, LeaveType: "sick", StartDate: day("2025-07-07"), EndDate: day("2025-07-07"), FirstName: "Alex",
		})
		Expect(racing.HandleLeaveApproved(ctx, events.NewLeaveApprovedEvent(7, 2, 9, "sick", 1))).To(Succeed())
		close(gated.release)

		var stale []calendar.Event
		Eventually(done).Should(Receive(&stale))
		Expect(stale).To(BeEmpty())

		evs, err := racing.Events(ctx, employee)
		Expect(err).NotTo(HaveOccurred())
		Expect(evs).To(HaveLen(1))
		Expect(evs[0].ID).To(Equal(int64(7)))
	})

	It("works without a cache", func() {
		uncached := calendar.NewService(reader, nil, 0, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
		for i := 0; i < 2; i++ {
			_, err := uncached.Events(ctx, employee)
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(reader.calls).To(Equal(2))
		Expect(uncached.Invalidate(ctx)).To(Succeed())
	})

	It("ignores a corrupt cache entry", func() {
		Expect(store.Set(ctx, "calendar:events:approved:0", []byte("{not json"), time.Minute)).To(Succeed())

		events, err := service.Events(ctx, employee)
		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(HaveLen(1))
		Expect(reader.calls).To(Equal(1))
	})

	It("reports read failures as internal errors", func() {
		reader.err = errors.New("connection reset")
		_, err := service.Events(ctx, employee)

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
		Expect(store.has("calendar:events:approved:0")).To(BeFalse())
	})
})

package authorization_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/rbac-service/internal/authorization"
	"github.com/frahmantamala/rbac-service/internal/core/events"
)

// mockStore returns canned snapshots and counts loads.
type mockStore struct {
	snapshots  map[int64]*authorization.Snapshot
	loads      int
	shouldFail bool
	failError  error
}

func (m *mockStore) LoadSnapshot(_ context.Context, userID int64) (*authorization.Snapshot, error) {
	m.loads++
	if m.shouldFail {
		return nil, m.failError
	}
	if s, ok := m.snapshots[userID]; ok {
		cp := *s
		return &cp, nil
	}
	return &authorization.Snapshot{UserID: userID, RoleNames: allRoles}, nil
}

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

var _ = Describe("Resolver", func() {
	var (
		store   *mockStore
		ctx     context.Context
		metrics *authorization.Metrics
		reg     *prometheus.Registry
	)

	BeforeEach(func() {
		store = &mockStore{snapshots: map[int64]*authorization.Snapshot{
			1: snapshotFor("ADMIN"),
			2: snapshotFor("Guest", "Read", "List"),
		}}
		store.snapshots[2].UserID = 2
		reg = prometheus.NewRegistry()
		metrics = authorization.NewMetrics(reg)
		ctx = context.Background()
	})

	Context("without a cache", func() {
		var resolver *authorization.Resolver

		BeforeEach(func() {
			resolver = authorization.NewResolver(store, nil, metrics, testLogger)
		})

		It("lets ADMIN through and limits Guest to its links", func() {
			// Given the seeded ADMIN and Guest users

			// When
			adminDelete, err := resolver.Authorize(ctx, 1, "Delete")
			Expect(err).NotTo(HaveOccurred())
			guestRead, err := resolver.Authorize(ctx, 2, "Read")
			Expect(err).NotTo(HaveOccurred())
			guestCreate, err := resolver.Authorize(ctx, 2, "Create")
			Expect(err).NotTo(HaveOccurred())

			// Then
			Expect(adminDelete).To(BeTrue())
			Expect(guestRead).To(BeTrue())
			Expect(guestCreate).To(BeFalse())
		})

		It("denies unknown users without an error", func() {
			allowed, err := resolver.Authorize(ctx, 404, "Read")

			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})

		It("returns storage failures as errors", func() {
			store.shouldFail = true
			store.failError = errors.New("db down")

			allowed, err := resolver.Authorize(ctx, 1, "Read")

			Expect(err).To(MatchError(ContainSubstring("db down")))
			Expect(allowed).To(BeFalse())
		})

		It("counts decisions by result", func() {
			_, _ = resolver.Authorize(ctx, 2, "Read")
			_, _ = resolver.Authorize(ctx, 2, "Create")
			store.shouldFail = true
			store.failError = errors.New("db down")
			_, _ = resolver.Authorize(ctx, 2, "Read")

			Expect(testutil.CollectAndCount(reg, "rbac_authorization_decisions_total")).To(Equal(3))
			Expect(testutil.ToFloat64(metrics.DecisionCounter("Read", "allow"))).To(Equal(1.0))
			Expect(testutil.ToFloat64(metrics.DecisionCounter("Read", "error"))).To(Equal(1.0))
		})

		It("works without metrics", func() {
			r := authorization.NewResolver(store, nil, nil, testLogger)

			allowed, err := r.Authorize(ctx, 1, "Read")

			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})
	})

	itCachesAndInvalidates := func(newCache func() authorization.SnapshotCache) {
		var (
			resolver *authorization.Resolver
			bus      *events.EventBus
		)

		BeforeEach(func() {
			resolver = authorization.NewResolver(store, newCache(), metrics, testLogger)
			bus = events.NewEventBus(testLogger)
			resolver.Subscribe(bus)
		})

		It("serves repeated checks from the cache", func() {
			_, err := resolver.Authorize(ctx, 2, "Read")
			Expect(err).NotTo(HaveOccurred())
			_, err = resolver.Authorize(ctx, 2, "List")
			Expect(err).NotTo(HaveOccurred())

			Expect(store.loads).To(Equal(1))
		})

		It("reloads after role permissions change", func() {
			// Given
			allowed, err := resolver.Authorize(ctx, 2, "Create")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())

			// When
			store.snapshots[2].Permissions = append(store.snapshots[2].Permissions, "Create")
			Expect(bus.Publish(ctx, events.NewRoleEvent(events.EventTypeRolePermissionsChanged, 3))).To(Succeed())

			// Then
			allowed, err = resolver.Authorize(ctx, 2, "Create")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
			Expect(store.loads).To(Equal(2))
		})

		It("reloads after a user is deleted", func() {
			_, err := resolver.Authorize(ctx, 1, "Read")
			Expect(err).NotTo(HaveOccurred())

			delete(store.snapshots, 1)
			Expect(bus.Publish(ctx, events.NewUserEvent(events.EventTypeUserDeleted, 1))).To(Succeed())

			allowed, err := resolver.Authorize(ctx, 1, "Read")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})
	}

	Context("with the local cache", func() {
		itCachesAndInvalidates(func() authorization.SnapshotCache {
			return authorization.NewLocalCache(16, time.Minute)
		})
	})

	Context("with the redis cache", func() {
		var mr *miniredis.Miniredis

		BeforeEach(func() {
			var err error
			mr, err = miniredis.Run()
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			mr.Close()
		})

		itCachesAndInvalidates(func() authorization.SnapshotCache {
			return authorization.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
		})

		It("falls back to the store when redis is gone", func() {
			resolver := authorization.NewResolver(store,
				authorization.NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute),
				metrics, testLogger)
			mr.Close()

			allowed, err := resolver.Authorize(ctx, 1, "Read")

			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})
	})
})

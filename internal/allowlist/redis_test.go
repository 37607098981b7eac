package allowlist_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/Samuelzila/grammar-police/internal/allowlist"
	"github.com/Samuelzila/grammar-police/internal/model"
)

var _ = Describe("RedisBackend", func() {
	const key = "test:authorized_users"

	var (
		ctx     context.Context
		mr      *miniredis.Miniredis
		client  *redis.Client
		backend *allowlist.RedisBackend
	)

	newClient := func() *redis.Client {
		c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		DeferCleanup(c.Close)
		return c
	}

	BeforeEach(func() {
		ctx = context.Background()
		mr = miniredis.RunT(GinkgoT())
		client = newClient()
		backend = allowlist.NewRedisBackend(client, key)
	})

	It("loads an empty list when the key does not exist", func() {
		senders, err := backend.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(senders).To(BeEmpty())
	})

	It("saves the list as a JSON array", func() {
		Expect(backend.Save(ctx, []model.SenderID{"111", "gitlab:jdoe"})).To(Succeed())

		raw, err := mr.Get(key)
		Expect(err).NotTo(HaveOccurred())
		Expect(raw).To(MatchJSON(`[111, "gitlab:jdoe"]`))

		senders, err := backend.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(senders).To(Equal([]model.SenderID{"111", "gitlab:jdoe"}))
	})

	It("uses the default key when none is given", func() {
		Expect(allowlist.NewRedisBackend(client, "").Save(ctx, []model.SenderID{"1"})).To(Succeed())
		Expect(mr.Exists(allowlist.DefaultRedisKey)).To(BeTrue())
	})

	Describe("Update", func() {
		It("retries when another writer changes the key mid-update", func() {
			other := newClient()
			calls := 0

			err := backend.Update(ctx, func(senders []model.SenderID) ([]model.SenderID, bool) {
				calls++
				if calls == 1 {
					Expect(other.Set(ctx, key, `[111]`, 0).Err()).To(Succeed())
				}
				return append(senders, "222"), true
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(Equal(2))
			raw, _ := mr.Get(key)
			Expect(raw).To(MatchJSON(`[111, 222]`))
		})

		It("does not write when nothing changed", func() {
			Expect(backend.Update(ctx, func(senders []model.SenderID) ([]model.SenderID, bool) {
				return senders, false
			})).To(Succeed())

			Expect(mr.Exists(key)).To(BeFalse())
		})

		It("gives up under sustained contention", func() {
			other := newClient()
			calls := 0

			err := backend.Update(ctx, func(senders []model.SenderID) ([]model.SenderID, bool) {
				calls++
				Expect(other.Set(ctx, key, fmt.Sprintf(`[%d]`, calls), 0).Err()).To(Succeed())
				return append(senders, "222"), true
			})

			Expect(err).To(MatchError(ContainSubstring("too much contention")))
			Expect(calls).To(Equal(5))
		})
	})

	Describe("through a Store", func() {
		It("reports a malformed record as a StorageError", func() {
			Expect(mr.Set(key, "{oops")).To(Succeed())
			store := allowlist.New(backend)

			_, err := store.IsAuthorized(ctx, "111")
			var storageErr *allowlist.StorageError
			Expect(errors.As(err, &storageErr)).To(BeTrue())
			Expect(err).To(MatchError(allowlist.ErrMalformed))

			err = store.Authorize(ctx, "111")
			Expect(errors.As(err, &storageErr)).To(BeTrue())
			Expect(storageErr.Op).To(Equal("update"))
			Expect(err).To(MatchError(allowlist.ErrMalformed))

			raw, _ := mr.Get(key)
			Expect(raw).To(Equal("{oops"))
		})

		It("keeps every addition from stores in different processes", func() {
			first := allowlist.New(allowlist.NewRedisBackend(newClient(), key))
			second := allowlist.New(allowlist.NewRedisBackend(newClient(), key))

			var wg sync.WaitGroup
			for i, store := range []*allowlist.Store{first, second} {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					for j := range 3 {
						Expect(store.Authorize(ctx, model.SenderID(fmt.Sprint(i*10+j)))).To(Succeed())
					}
				}()
			}
			wg.Wait()

			senders, err := first.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(senders).To(ConsistOf(model.SenderID("0"), model.SenderID("1"), model.SenderID("2"),
				model.SenderID("10"), model.SenderID("11"), model.SenderID("12")))
		})
	})
})

package allowlist_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Samuelzila/grammar-police/internal/allowlist"
	"github.com/Samuelzila/grammar-police/internal/model"
)

type fakeBackend struct {
	mu      sync.Mutex
	senders []model.SenderID
	loadErr error
	saveErr error
	saves   int
}

func (f *fakeBackend) Load(_ context.Context) ([]model.SenderID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]model.SenderID(nil), f.senders...), nil
}

func (f *fakeBackend) Save(_ context.Context, senders []model.SenderID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.senders = append([]model.SenderID(nil), senders...)
	return nil
}

var _ = Describe("Store", func() {
	var (
		ctx     context.Context
		backend *fakeBackend
		store   *allowlist.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = &fakeBackend{senders: []model.SenderID{"111", "222"}}
		store = allowlist.New(backend)
	})

	It("authorizes a new sender and keeps existing ones", func() {
		ok, err := store.IsAuthorized(ctx, "333")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		Expect(store.Authorize(ctx, "333")).To(Succeed())

		ok, err = store.IsAuthorized(ctx, "333")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(backend.senders).To(Equal([]model.SenderID{"111", "222", "333"}))
	})

	It("does not write when the sender is already present", func() {
		Expect(store.Authorize(ctx, "111")).To(Succeed())
		Expect(backend.saves).To(Equal(0))
		Expect(backend.senders).To(HaveLen(2))
	})

	It("returns a StorageError when the backend cannot be read", func() {
		backend.loadErr = errors.New("disk on fire")

		ok, err := store.IsAuthorized(ctx, "111")
		Expect(ok).To(BeFalse())

		var storageErr *allowlist.StorageError
		Expect(errors.As(err, &storageErr)).To(BeTrue())
		Expect(storageErr.Op).To(Equal("load"))
	})

	It("returns a StorageError when the backend cannot be written", func() {
		backend.saveErr = errors.New("read-only")

		err := store.Authorize(ctx, "333")

		var storageErr *allowlist.StorageError
		Expect(errors.As(err, &storageErr)).To(BeTrue())
		Expect(storageErr.Op).To(Equal("save"))
	})

	It("does not lose concurrent additions", func() {
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func(n int) {
				defer GinkgoRecover()
				defer wg.Done()
				Expect(store.Authorize(ctx, model.SenderID(fmt.Sprintf("%d", 1000+n)))).To(Succeed())
			}(i)
		}
		wg.Wait()

		senders, err := store.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(senders).To(HaveLen(52))
	})
})

var _ = Describe("FileBackend", func() {
	var (
		ctx   context.Context
		path  string
		store *allowlist.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		path = filepath.Join(GinkgoT().TempDir(), "authorized_users")
		store = allowlist.New(allowlist.NewFileBackend(path))
	})

	It("round-trips the numeric ids written by the original bot", func() {
		Expect(os.WriteFile(path, []byte("[111,222]"), 0o600)).To(Succeed())

		ok, err := store.IsAuthorized(ctx, "333")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		Expect(store.Authorize(ctx, "333")).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(MatchJSON("[111,222,333]"))

		ok, err = store.IsAuthorized(ctx, "333")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("keeps string ids as strings", func() {
		Expect(store.Authorize(ctx, "gitlab:alice")).To(Succeed())
		Expect(store.Authorize(ctx, "42")).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(MatchJSON(`["gitlab:alice", 42]`))
	})

	It("treats a missing file as an empty list", func() {
		ok, err := store.IsAuthorized(ctx, "111")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	DescribeTable("rejects malformed records",
		func(content string) {
			Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())

			ok, err := store.IsAuthorized(ctx, "111")
			Expect(ok).To(BeFalse())
			Expect(err).To(MatchError(allowlist.ErrMalformed))

			var storageErr *allowlist.StorageError
			Expect(errors.As(err, &storageErr)).To(BeTrue())
		},
		Entry("an object", `{"users": [111]}`),
		Entry("null", `null`),
		Entry("a list of booleans", `[true]`),
		Entry("a float id", `[1.5]`),
		Entry("truncated json", `[111,`),
	)

	It("leaves the previous record intact when the write fails", func() {
		Expect(os.WriteFile(path, []byte("[111]"), 0o600)).To(Succeed())
		badStore := allowlist.New(allowlist.NewFileBackend(filepath.Join(path+"-missing-dir", "users")))

		Expect(badStore.Authorize(ctx, "222")).NotTo(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(MatchJSON("[111]"))
	})

	It("does not leave temp files behind", func() {
		Expect(store.Authorize(ctx, "1")).To(Succeed())
		Expect(store.Authorize(ctx, "2")).To(Succeed())

		entries, err := os.ReadDir(filepath.Dir(path))
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})
})

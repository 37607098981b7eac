package worker_test

import (
	"context"
	"errors"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/Samuelzila/grammar-police/internal/queue"
	"github.com/Samuelzila/grammar-police/internal/worker"
)

var _ = Describe("Reclaimer", func() {
	var (
		ctx     context.Context
		orphans *mockOrphans
		r       *worker.Reclaimer
	)

	BeforeEach(func() {
		ctx = context.Background()
		orphans = &mockOrphans{}
		r = worker.NewReclaimer(orphans, worker.ReclaimerConfig{MinIdle: time.Minute, Interval: 10 * time.Millisecond})
	})

	It("dead-letters abandoned messages instead of running them again", func() {
		var gotIdle time.Duration
		orphans.reclaimFn = func(_ context.Context, minIdle time.Duration) ([]queue.Message, error) {
			gotIdle = minIdle
			first, second := discordMessage("1-0", 10), discordMessage("2-0", 11)
			first.Attempt, second.Attempt = 2, 3
			return []queue.Message{first, second}, nil
		}

		moved, err := r.Sweep(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(moved).To(Equal(2))
		Expect(gotIdle).To(Equal(time.Minute))
		Expect(orphans.dlqEntries()).To(Equal(map[string]string{
			"1-0": "abandoned mid-run: delivered 2 times",
			"2-0": "abandoned mid-run: delivered 3 times",
		}))
	})

	It("does nothing when no message is orphaned", func() {
		moved, err := r.Sweep(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(moved).To(BeZero())
		Expect(orphans.dlqEntries()).To(BeEmpty())
	})

	It("keeps sweeping past a message it could not dead-letter", func() {
		orphans.reclaimFn = func(context.Context, time.Duration) ([]queue.Message, error) {
			return []queue.Message{discordMessage("1-0", 10), discordMessage("2-0", 11)}, nil
		}
		orphans.dlqFn = func(msg queue.Message) error {
			if msg.ID == "1-0" {
				return errors.New("redis down")
			}
			return nil
		}

		moved, err := r.Sweep(ctx)

		Expect(err).To(MatchError(ContainSubstring("dead-lettering 1-0")))
		Expect(moved).To(Equal(1))
		Expect(orphans.dlqEntries()).To(HaveKey("2-0"))
	})

	It("returns the claim error", func() {
		orphans.reclaimFn = func(context.Context, time.Duration) ([]queue.Message, error) {
			return nil, errors.New("xautoclaim failed")
		}

		_, err := r.Sweep(ctx)
		Expect(err).To(MatchError("xautoclaim failed"))
	})

	It("sweeps on every interval until cancelled", func() {
		runCtx, cancel := context.WithCancel(ctx)
		sweeps := make(chan struct{}, 10)
		orphans.reclaimFn = func(context.Context, time.Duration) ([]queue.Message, error) {
			select {
			case sweeps <- struct{}{}:
			default:
			}
			return nil, nil
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			r.Run(runCtx)
		}()

		Eventually(sweeps).Should(Receive())
		Eventually(sweeps).Should(Receive())
		cancel()
		Eventually(done).Should(BeClosed())
	})
})

var _ = Describe("Reclaimer with a Redis stream", func() {
	It("moves a message left pending by a crashed worker to the DLQ", func() {
		ctx := context.Background()
		mr := miniredis.RunT(GinkgoT())
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		DeferCleanup(client.Close)

		cfg := queue.ConsumerConfig{
			Stream:    "grammar:messages",
			Group:     "grammar-workers",
			Consumer:  "crashed",
			DLQStream: "grammar:messages:dlq",
			BatchSize: 10,
			Block:     -1,
		}
		crashed, err := queue.NewRedisConsumer(client, cfg)
		Expect(err).NotTo(HaveOccurred())
		cfg.Consumer = "survivor"
		survivor, err := queue.NewRedisConsumer(client, cfg)
		Expect(err).NotTo(HaveOccurred())

		msg := discordMessage("", 42)
		Expect(queue.NewRedisProducer(client, cfg.Stream, nil).Enqueue(ctx, msg.Inbound)).To(Succeed())
		read, err := crashed.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(read).To(HaveLen(1))

		moved, err := worker.NewReclaimer(survivor, worker.ReclaimerConfig{}).Sweep(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(moved).To(Equal(1))

		summary, err := client.XPending(ctx, cfg.Stream, cfg.Group).Result()
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Count).To(BeZero())

		dead, err := client.XRange(ctx, cfg.DLQStream, "-", "+").Result()
		Expect(err).NotTo(HaveOccurred())
		Expect(dead).To(HaveLen(1))
		Expect(dead[0].Values).To(HaveKeyWithValue("error", "abandoned mid-run: delivered 2 times"))
		Expect(dead[0].Values).To(HaveKeyWithValue("attempt", "2"))
	})
})

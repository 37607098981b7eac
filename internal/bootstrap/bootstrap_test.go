package bootstrap_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Samuelzila/grammar-police/core/config"
	"github.com/Samuelzila/grammar-police/internal/bootstrap"
	"github.com/Samuelzila/grammar-police/internal/model"
)

var _ = Describe("bootstrap", func() {
	ctx := context.Background()

	Describe("NewAllowList", func() {
		It("uses the file backend by default", func() {
			path := filepath.Join(GinkgoT().TempDir(), "authorized_users")
			Expect(os.WriteFile(path, []byte(`[111]`), 0o600)).To(Succeed())

			store, err := bootstrap.NewAllowList(config.AllowListConfig{Backend: config.AllowListBackendFile, Path: path}, nil)
			Expect(err).NotTo(HaveOccurred())

			ok, err := store.IsAuthorized(ctx, model.SenderID("111"))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("refuses the redis backend without a connection", func() {
			_, err := bootstrap.NewAllowList(config.AllowListConfig{Backend: config.AllowListBackendRedis}, &bootstrap.Resources{})
			Expect(err).To(MatchError(ContainSubstring("redis")))
		})

		It("refuses the postgres backend without a database", func() {
			_, err := bootstrap.NewAllowList(config.AllowListConfig{Backend: config.AllowListBackendPostgres}, nil)
			Expect(err).To(MatchError(ContainSubstring("database")))
		})

		It("rejects unknown backends", func() {
			_, err := bootstrap.NewAllowList(config.AllowListConfig{Backend: "sqlite"}, nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("NewTriager", func() {
		It("falls back to the defaults when the rules file is missing", func() {
			triager, err := bootstrap.NewTriager(ctx, config.TriageConfig{RulesFile: "/nonexistent/rules.yaml"})
			Expect(err).NotTo(HaveOccurred())
			Expect(triager).NotTo(BeNil())
		})

		It("fails on an unparsable rules file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "rules.yaml")
			Expect(os.WriteFile(path, []byte("tolerated_messages: {"), 0o600)).To(Succeed())

			_, err := bootstrap.NewTriager(ctx, config.TriageConfig{RulesFile: path})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("NewReplier", func() {
		It("routes gitlab only when credentials are configured", func() {
			mux, err := bootstrap.NewReplier(config.Config{}, nil)
			Expect(err).NotTo(HaveOccurred())

			err = mux.Reply(ctx, model.InboundMessage{Platform: model.PlatformGitLab}, "x")
			Expect(err).To(MatchError(ContainSubstring("no replier registered")))
		})
	})
})

package config_test

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Samuelzila/grammar-police/core/config"
)

var _ = Describe("Load", func() {
	setEnv := func(key, value string) {
		GinkgoT().Setenv(key, value)
	}

	BeforeEach(func() {
		// Keep a developer's local .env files out of the tests.
		setEnv("GRAMMAR_ENV", "test")
		for _, key := range []string{"LANGUAGETOOL_LANGUAGE", "ALLOWLIST_BACKEND", "PIPELINE_MODE", "DATABASE_URL", "TOKEN"} {
			Expect(os.Unsetenv(key)).To(Succeed())
		}
	})

	It("uses the historical defaults", func() {
		cfg, err := config.Load(config.ServiceTypeWorker)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.LanguageTool.BaseURL).To(Equal("http://localhost:8081"))
		Expect(cfg.LanguageTool.Language).To(Equal("fr-CA"))
		Expect(cfg.LanguageTool.Timeout).To(Equal(15 * time.Second))
		Expect(cfg.AllowList.Backend).To(Equal(config.AllowListBackendFile))
		Expect(cfg.AllowList.Path).To(Equal("./authorized_users"))
		Expect(cfg.Pipeline.Mode).To(Equal(config.PipelineModeInline))
		Expect(cfg.Pipeline.RedisConsumer).To(Equal("worker"))
		Expect(cfg.NeedsRedis()).To(BeFalse())
	})

	It("reads overrides from the environment", func() {
		setEnv("LANGUAGETOOL_LANGUAGE", "fr-FR")
		setEnv("LANGUAGETOOL_TIMEOUT", "2s")
		setEnv("PIPELINE_MODE", "queue")
		setEnv("PIPELINE_CONCURRENCY", "3")

		cfg, err := config.Load(config.ServiceTypeWorker)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LanguageTool.Language).To(Equal("fr-FR"))
		Expect(cfg.LanguageTool.Timeout).To(Equal(2 * time.Second))
		Expect(cfg.Pipeline.Queued()).To(BeTrue())
		Expect(cfg.Pipeline.Concurrency).To(Equal(3))
		Expect(cfg.NeedsRedis()).To(BeTrue())
	})

	DescribeTable("rejects invalid settings",
		func(key, value string, service config.ServiceType) {
			if key != "" {
				setEnv(key, value)
			}
			_, err := config.Load(service)
			Expect(err).To(HaveOccurred())
		},
		Entry("bad language tag", "LANGUAGETOOL_LANGUAGE", "not a language!", config.ServiceTypeWorker),
		Entry("unknown allow-list backend", "ALLOWLIST_BACKEND", "etcd", config.ServiceTypeWorker),
		Entry("postgres without a database", "ALLOWLIST_BACKEND", "postgres", config.ServiceTypeWorker),
		Entry("unknown pipeline mode", "PIPELINE_MODE", "batch", config.ServiceTypeWorker),
		Entry("bot without a token", "", "", config.ServiceTypeBot),
	)
})

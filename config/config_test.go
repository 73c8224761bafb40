package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/news-aggregator/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

const validConfig = `
server:
  address: ":8080"
  environment: "dev"

logging:
  level: "info"

providers:
  - name: "newsapi"
    base_url: "http://localhost:8081"
    api_key: "test-key"
    timeout: "5s"
  - name: "guardian"
    base_url: "http://localhost:8082"
    api_key: "test-key"

circuit_breaker:
  failure_threshold: 5
  recovery_timeout: "30s"
  monitoring_window: "1m"
  minimum_requests: 3

retry:
  max_attempts: 3
  base_delay: "500ms"
  multiplier: 2.0
  max_jitter: "250ms"

metrics:
  buffer_size: 1000
`

var _ = Describe("Config", func() {
	var (
		tempDir string
		origDir string
	)

	writeConfig := func(content string) {
		configPath := filepath.Join(tempDir, "config.yaml")
		err := os.WriteFile(configPath, []byte(content), 0644)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		viper.Reset()

		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tempDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.Chdir(origDir)
		os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("with valid config file", func() {
			BeforeEach(func() {
				writeConfig(validConfig)
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
			})

			It("should parse the providers", func() {
				cfg, _ := config.Load()
				Expect(cfg.Providers).To(HaveLen(2))
				Expect(cfg.Providers[0].Name).To(Equal("newsapi"))
				Expect(cfg.Providers[0].Timeout).To(Equal("5s"))
				Expect(cfg.Providers[1].BaseURL).To(Equal("http://localhost:8082"))
			})

			It("should parse the circuit breaker settings", func() {
				cfg, _ := config.Load()
				Expect(cfg.CircuitBreaker.FailureThreshold).To(Equal(5))
				Expect(cfg.CircuitBreaker.RecoveryTimeout).To(Equal("30s"))
				Expect(cfg.CircuitBreaker.MinimumRequests).To(Equal(3))
			})

			It("should parse the retry settings", func() {
				cfg, _ := config.Load()
				Expect(cfg.Retry.MaxAttempts).To(Equal(3))
				Expect(cfg.Retry.Multiplier).To(Equal(2.0))
			})
		})

		Context("with a partial config file", func() {
			It("should fill in defaults for omitted sections", func() {
				writeConfig(`
providers:
  - name: "newsapi"
    base_url: "http://localhost:8081"
`)
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address).To(Equal(":8080"))
				Expect(cfg.Server.Environment).To(Equal(config.EnvDev))
				Expect(cfg.CircuitBreaker.FailureThreshold).To(Equal(5))
				Expect(cfg.Retry.BaseDelay).To(Equal("500ms"))
				Expect(cfg.Metrics.BufferSize).To(Equal(1000))
			})
		})

		Context("without a config file", func() {
			It("should fail validation because no providers are configured", func() {
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Validate", func() {
		It("should reject an unknown environment", func() {
			writeConfig(`
server:
  environment: "production"

providers:
  - name: "newsapi"
    base_url: "http://localhost:8081"
`)
			_, err := config.Load()
			Expect(err).To(HaveOccurred())
		})

		It("should reject a malformed server address", func() {
			writeConfig(`
server:
  address: "no-port-here"

providers:
  - name: "newsapi"
    base_url: "http://localhost:8081"
`)
			_, err := config.Load()
			Expect(err).To(HaveOccurred())
		})

		It("should reject a provider without a base URL", func() {
			writeConfig(`
providers:
  - name: "newsapi"
`)
			_, err := config.Load()
			Expect(err).To(HaveOccurred())
		})

		It("should reject a provider with a non-http scheme", func() {
			writeConfig(`
providers:
  - name: "newsapi"
    base_url: "ftp://localhost:8081"
`)
			_, err := config.Load()
			Expect(err).To(HaveOccurred())
		})

		It("should reject an invalid recovery timeout", func() {
			writeConfig(`
providers:
  - name: "newsapi"
    base_url: "http://localhost:8081"

circuit_breaker:
  recovery_timeout: "soon"
`)
			_, err := config.Load()
			Expect(err).To(HaveOccurred())
		})

		It("should reject an invalid provider timeout", func() {
			writeConfig(`
providers:
  - name: "newsapi"
    base_url: "http://localhost:8081"
    timeout: "fast"
`)
			_, err := config.Load()
			Expect(err).To(HaveOccurred())
		})

		It("should reject a retry multiplier below one", func() {
			writeConfig(`
providers:
  - name: "newsapi"
    base_url: "http://localhost:8081"

retry:
  multiplier: 0.5
`)
			_, err := config.Load()
			Expect(err).To(HaveOccurred())
		})
	})
})

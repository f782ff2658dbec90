package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Upstream extraction/enhancement service
	v.SetDefault("upstream.baseURL", "http://localhost:5000")
	v.SetDefault("upstream.apiKey", "")
	v.SetDefault("upstream.modelType", "OpenAI")
	v.SetDefault("upstream.model", "gpt-4o")
	v.SetDefault("upstream.extractTimeout", 60*time.Second)
	v.SetDefault("upstream.enhanceTimeout", 120*time.Second)

	// Upstream circuit breaker
	v.SetDefault("upstream.circuitBreaker.enabled", true)
	v.SetDefault("upstream.circuitBreaker.maxRequests", 3)
	v.SetDefault("upstream.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("upstream.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("upstream.circuitBreaker.minRequests", 3)
	v.SetDefault("upstream.circuitBreaker.failureThreshold", 0.6)

	// Enhancement strategy selection
	v.SetDefault("enhance.strategy", "upstream")
	v.SetDefault("enhance.gemini.model", "gemini-2.0-flash")
	v.SetDefault("enhance.gemini.apiKey", "")
	v.SetDefault("enhance.gemini.maxRetries", 3)
	v.SetDefault("enhance.gemini.temperature", 0.2)
	v.SetDefault("enhance.gemini.promptFile", "")

	v.SetDefault("enhance.gemini.circuitBreaker.enabled", true)
	v.SetDefault("enhance.gemini.circuitBreaker.maxRequests", 3)
	v.SetDefault("enhance.gemini.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("enhance.gemini.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("enhance.gemini.circuitBreaker.minRequests", 3)
	v.SetDefault("enhance.gemini.circuitBreaker.failureThreshold", 0.6)

	// Job search service
	v.SetDefault("jobsearch.baseURL", "https://jsearch.p.rapidapi.com")
	v.SetDefault("jobsearch.apiKey", "")
	v.SetDefault("jobsearch.apiHost", "jsearch.p.rapidapi.com")
	v.SetDefault("jobsearch.numPages", 1)
	v.SetDefault("jobsearch.timeout", 30*time.Second)

	// Document-conversion backend
	v.SetDefault("docs.baseURL", "http://localhost:3001")
	v.SetDefault("docs.timeout", 180*time.Second)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)

	// TLS Configuration defaults
	v.SetDefault("server.tls.mode", "disabled") // disabled, server, mutual
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")           // TLS 1.2 minimum
	v.SetDefault("server.tls.cipherSuites", []string{})    // Use Go defaults
	v.SetDefault("server.tls.clientAuthPolicy", "require") // require, request, verify
	v.SetDefault("server.tls.insecureSkipVerify", false)
	v.SetDefault("server.tls.serverName", "")

	// Certificate auto-reload defaults
	v.SetDefault("server.tls.autoReload.enabled", true)
	v.SetDefault("server.tls.autoReload.preemptiveRenewal", 0)
	v.SetDefault("server.tls.autoReload.fileWatcher.enabled", true)
	v.SetDefault("server.tls.autoReload.fileWatcher.debounceDelay", time.Second)
	v.SetDefault("server.tls.autoReload.vaultWatcher.enabled", false)
	v.SetDefault("server.tls.autoReload.vaultWatcher.secretPath", "")
	v.SetDefault("server.tls.autoReload.vaultWatcher.pollInterval", 5*time.Minute)

	// API Authentication defaults
	v.SetDefault("server.apiKeys", []string{})

	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxUploadSize", 10*1024*1024) // 10 MiB
	v.SetDefault("app.allowPlainText", true)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.upstreamKey", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.jobSearchKey", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumepilot")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	// Tracing Configuration
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	// Metrics Configuration
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Console Configuration
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})

	// Health Check Configuration
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.upstreamCheckTimeout", 10*time.Second)
}

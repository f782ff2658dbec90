package server

import (
	"time"

	"resumepilot/internal/config"
	"resumepilot/internal/docs"
	"resumepilot/internal/enhance"
	resumepilotErrors "resumepilot/internal/errors"
	"resumepilot/internal/extract"
	"resumepilot/internal/jobsearch"
)

// EnhanceRequest represents the request body for the enhance endpoint.
// ResumeJSON carries the normalized resume record produced by a prior
// extraction; Strategy optionally forces the local scorer for this call.
type EnhanceRequest struct {
	ResumeJSON     map[string]any `json:"resumeJson"`
	JobDescription string         `json:"jobDescription"`
	Strategy       string         `json:"strategy,omitempty"`
	FileID         string         `json:"fileId,omitempty"`
}

// JobSearchRequest represents the request body for the job search endpoint
type JobSearchRequest struct {
	JobProfile string `json:"jobProfile"`
	Experience string `json:"experience"`
	Location   string `json:"location"`
	NumPages   int    `json:"numPages,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate management
	CertificateManager *CertificateManager

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Pipeline services
	Extractor  *extract.Client
	Enhancer   *enhance.Service
	JobSearch  *jobsearch.Client
	DocsClient *docs.Client

	// Logger
	Logger *resumepilotErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct.
// The pipeline services are constructed once and shared by all handlers so
// circuit breaker state survives across requests.
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *resumepilotErrors.Logger) (*Server, error) {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	enhancer, err := enhance.NewService(appCfg, logger)
	if err != nil {
		return nil, err
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Extractor:      extract.NewClient(appCfg, logger),
		Enhancer:       enhancer,
		JobSearch:      jobsearch.NewClient(appCfg, logger),
		DocsClient:     docs.NewClient(appCfg, logger),
		Logger:         logger,
	}, nil
}

package deckfill

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// Engine provides the main API for working with deck templates.
// Use New() to create a new engine instance.
type Engine struct {
	config *Config
	cache  *TemplateCache
	logger *zap.Logger
}

// New creates a new template engine with default configuration.
func New() *Engine {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a new template engine with custom configuration.
func NewWithConfig(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{
		config: config,
		cache: NewTemplateCache(CacheConfig{
			MaxSize: config.CacheMaxSize,
			TTL:     config.CacheTTL,
		}),
		logger: ensureLogger(nil),
	}
}

// PrepareFile loads and scans a template from a file path.
// The template is cached if caching is enabled in the configuration.
func (e *Engine) PrepareFile(path string) (*PreparedTemplate, error) {
	// Check cache first if enabled
	if e.config.CacheMaxSize > 0 && e.cache != nil {
		if tmpl, ok := e.cache.Get(path); ok {
			return tmpl, nil
		}
	}

	// Open and prepare the file
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer file.Close()

	tmpl, err := e.Prepare(file)
	if err != nil {
		return nil, err
	}

	// Store in cache if enabled
	if e.config.CacheMaxSize > 0 && e.cache != nil {
		e.cache.Set(path, tmpl)
	}

	return tmpl, nil
}

// Prepare loads and scans a template from an io.Reader.
func (e *Engine) Prepare(r io.Reader) (*PreparedTemplate, error) {
	return prepare(r, e.logger)
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// ClearCache removes all templates from the cache.
func (e *Engine) ClearCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}

// CacheSize returns the number of templates currently cached.
func (e *Engine) CacheSize() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.Size()
}

// Close releases any resources held by the engine, including cached
// templates.
func (e *Engine) Close() error {
	if e.cache != nil {
		return e.cache.Close()
	}
	return nil
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithConfig returns an option that sets the engine configuration and
// rebuilds the cache to match it.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		if config == nil {
			return
		}
		e.config = config
		e.cache = NewTemplateCache(CacheConfig{
			MaxSize: config.CacheMaxSize,
			TTL:     config.CacheTTL,
		})
	}
}

// WithCache returns an option that sets the cache size and TTL
// (maxSize 0 disables caching).
func WithCache(maxSize int, ttl time.Duration) Option {
	return func(e *Engine) {
		e.config.CacheMaxSize = maxSize
		e.config.CacheTTL = ttl
		e.cache = NewTemplateCache(CacheConfig{MaxSize: maxSize, TTL: ttl})
	}
}

// WithLogger returns an option that sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = ensureLogger(logger)
	}
}

// NewWithOptions creates a new engine with the specified options.
func NewWithOptions(opts ...Option) *Engine {
	engine := New()
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// DefaultEngine is the package-level engine used by the convenience
// functions below. It carries its own configuration; nothing else in the
// package reads from it.
var DefaultEngine = New()

// PrepareFile loads and scans a template from a file path using the default engine.
func PrepareFile(path string) (*PreparedTemplate, error) {
	return DefaultEngine.PrepareFile(path)
}

// Prepare loads and scans a template from an io.Reader using the default engine.
func Prepare(r io.Reader) (*PreparedTemplate, error) {
	return DefaultEngine.Prepare(r)
}

// ClearCache clears the default engine's template cache.
func ClearCache() {
	DefaultEngine.ClearCache()
}

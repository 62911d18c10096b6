package deckfill

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Processor runs the full prepare/render/save pipeline for a configured
// template. It is the unit the CLI and services build on: one Processor per
// template path, any number of Process calls.
type Processor struct {
	config *Config
	engine *Engine
	logger *zap.Logger
}

// NewProcessor creates a processor for the template named in config.
// A nil logger falls back to the production default.
func NewProcessor(config *Config, logger *zap.Logger) (*Processor, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.TemplatePath == "" {
		return nil, errors.New("template path cannot be empty")
	}

	logger = ensureLogger(logger)
	return &Processor{
		config: config,
		engine: NewWithOptions(WithConfig(config), WithLogger(logger)),
		logger: logger,
	}, nil
}

// Process renders the configured template with the given context and saves
// the result under the configured output directory. It returns the path of
// the saved deck.
func (p *Processor) Process(context Context) (string, error) {
	jobID := uuid.New().String()
	start := time.Now()

	log := p.logger.With(
		zap.String("job_id", jobID),
		zap.String("template", p.config.TemplatePath),
	)
	log.Info("processing deck")

	tmpl, err := p.engine.PrepareFile(p.config.TemplatePath)
	if err != nil {
		log.Error("failed to prepare template", zap.Error(err))
		return "", err
	}

	rendered, err := tmpl.Render(context)
	if err != nil {
		log.Error("failed to render deck", zap.Error(err))
		return "", err
	}

	outputPath, err := SaveRendered(rendered, p.config.OutputDir)
	if err != nil {
		log.Error("failed to save deck", zap.Error(err))
		return "", err
	}

	log.Info("deck rendered",
		zap.String("output", outputPath),
		zap.Duration("duration", time.Since(start)),
	)
	return outputPath, nil
}

// Close releases the processor's engine and cached templates.
func (p *Processor) Close() error {
	return p.engine.Close()
}

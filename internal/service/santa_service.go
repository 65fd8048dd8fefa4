// Package service sequences a Secret Santa run: load the config, validate
// it, draw the assignment, compose the messages and deliver them.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mmynk/secretsanta/internal/assigner"
	"github.com/mmynk/secretsanta/internal/composer"
	"github.com/mmynk/secretsanta/internal/config"
	"github.com/mmynk/secretsanta/internal/delivery"
	"github.com/mmynk/secretsanta/internal/metrics"
)

// Pipeline stages, used to label errors.
const (
	StageLoad     = "load config"
	StageValidate = "validate config"
	StageAssign   = "assign"
	StageCompose  = "compose"
	StageDeliver  = "deliver"
)

// StageError labels a failure with the pipeline stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Report summarizes a completed run. It never contains the assignment.
type Report struct {
	RunID        string
	Participants int
	Warnings     int
	Strategy     assigner.Strategy
	Attempts     int
	Fallback     bool
	Attempted    int
	Sent         int
}

// SantaService runs the whole pipeline.
type SantaService struct {
	engine       *assigner.Engine
	opener       delivery.Opener
	metrics      *metrics.Run
	composerOpts []composer.Option
}

// Option configures a SantaService.
type Option func(*SantaService)

// WithMetrics records the run into m.
func WithMetrics(m *metrics.Run) Option {
	return func(s *SantaService) { s.metrics = m }
}

// WithComposerOptions passes options to the message composer.
func WithComposerOptions(opts ...composer.Option) Option {
	return func(s *SantaService) { s.composerOpts = append(s.composerOpts, opts...) }
}

// NewSantaService creates a service drawing with engine and delivering
// through opener.
func NewSantaService(engine *assigner.Engine, opener delivery.Opener, opts ...Option) *SantaService {
	s := &SantaService{
		engine:  engine,
		opener:  opener,
		metrics: metrics.NewRun(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate loads and validates the config at path without drawing or sending.
func (s *SantaService) Validate(ctx context.Context, path string) (*config.Roster, error) {
	return s.loadRoster(ctx, slog.Default(), path)
}

// Run executes load → validate → assign → compose → deliver. Every stage
// fails fast; the first failure is returned wrapped in a *StageError.
func (s *SantaService) Run(ctx context.Context, path string) (*Report, error) {
	report := &Report{RunID: uuid.New().String()}
	logger := slog.With("run_id", report.RunID)

	roster, err := s.loadRoster(ctx, logger, path)
	if err != nil {
		return report, err
	}
	report.Participants = len(roster.Participants)
	report.Warnings = len(roster.Warnings)

	res, err := s.engine.Draw(roster.Participants)
	if err != nil {
		return report, s.fail(logger, StageAssign, err)
	}
	report.Strategy = res.Strategy
	report.Attempts = res.Attempts
	report.Fallback = res.Fallback
	s.metrics.ObserveDraw(res.Attempts, res.Fallback)

	logger.Info("Assignment drawn",
		"participants", res.Assignment.Len(),
		"strategy", res.Strategy,
		"attempts", res.Attempts,
		"fallback", res.Fallback,
	)
	if res.Fallback {
		logger.Warn("Rejection sampling hit its attempt ceiling, used cyclic construction", "attempts", res.Attempts)
	}

	c := composer.New(roster.Sender, s.composerOpts...)
	msgs := c.ComposeAll(res.Assignment)
	// Render each message once up front so an unencodable one fails the run
	// before the session is opened. Sessions render again when sending.
	for _, msg := range msgs {
		if _, err := msg.Bytes(); err != nil {
			return report, s.fail(logger, StageCompose, err)
		}
	}
	logger.Info("Messages composed", "count", len(msgs))

	summary, err := delivery.Deliver(ctx, s.opener, roster.Sender, msgs)
	if summary != nil {
		report.Attempted = summary.Attempted
		report.Sent = summary.Sent
		s.metrics.AddDelivered(summary.Sent, len(msgs)-summary.Sent)
	}
	if err != nil {
		return report, s.fail(logger, StageDeliver, err)
	}

	s.metrics.MarkSuccess()
	logger.Info("Run complete", "sent", report.Sent)
	return report, nil
}

func (s *SantaService) loadRoster(ctx context.Context, logger *slog.Logger, path string) (*config.Roster, error) {
	if err := ctx.Err(); err != nil {
		return nil, s.fail(logger, StageLoad, err)
	}

	doc, err := config.Load(path)
	if err != nil {
		return nil, s.fail(logger, StageLoad, err)
	}
	logger.Debug("Config loaded", "path", path)

	roster, err := config.Extract(doc)
	if err != nil {
		return nil, s.fail(logger, StageValidate, err)
	}

	for _, w := range roster.Warnings {
		logger.Warn("Duplicate participant name", "name", w.Name)
	}
	s.metrics.SetParticipants(len(roster.Participants))
	s.metrics.AddDuplicateNames(len(roster.Warnings))

	logger.Info("Config validated",
		"path", path,
		"participants", len(roster.Participants),
		"server", roster.Sender.HostPort(),
		"warnings", len(roster.Warnings),
	)
	return roster, nil
}

func (s *SantaService) fail(logger *slog.Logger, stage string, err error) error {
	s.metrics.IncFailure(stage)
	logger.Debug("Stage failed", "stage", stage, "error", err, "type", fmt.Sprintf("%T", err))
	return &StageError{Stage: stage, Err: err}
}

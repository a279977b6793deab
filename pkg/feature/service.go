package feature

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/tenant"
)

// Service is the entry point for flag evaluation and administration.
// It reads flags through the evaluation cache, falls back to the repository
// and applies the rollout evaluator. Decisions themselves are never cached.
type Service struct {
	repo      Repository
	cache     *Cache
	evaluator *Evaluator
	logger    *slog.Logger
	metrics   *Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEvaluator replaces the default evaluator, e.g. to pin the clock.
func WithEvaluator(e *Evaluator) ServiceOption {
	return func(s *Service) {
		if e != nil {
			s.evaluator = e
		}
	}
}

// WithMetrics records evaluation outcomes.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates the facade. A nil cache means every read goes to the repository.
func NewService(repo Repository, cache *Cache, opts ...ServiceOption) *Service {
	if cache == nil {
		cache = NewCache(repo, nil)
	}
	s := &Service{
		repo:      repo,
		cache:     cache,
		evaluator: NewEvaluator(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("feature_service"))
	return s
}

// Evaluate decides whether the flag is enabled for the user. A missing flag
// is not an error: it evaluates to disabled with ReasonNotFound.
// Returns ErrInvalidArgument when tenantID or flagKey is empty.
func (s *Service) Evaluate(ctx context.Context, tenantID, flagKey string, user *UserContext) (EvaluationResult, error) {
	if err := validateKey(tenantID, flagKey); err != nil {
		return EvaluationResult{}, err
	}
	ctx = tenant.WithID(ctx, tenantID)

	if user == nil {
		user = &UserContext{TenantID: tenantID}
	}

	flag, err := s.cache.Get(ctx, tenantID, flagKey)
	if err != nil {
		if !errors.Is(err, ErrFlagNotFound) {
			s.logger.ErrorContext(ctx, "flag lookup failed", logger.FlagKey(flagKey), logger.Error(err))
		} else {
			s.logger.DebugContext(ctx, "feature flag not found", logger.FlagKey(flagKey))
		}
		s.metrics.observeEvaluation(StrategyNotFound, false)
		return EvaluationResult{
			FlagKey:     flagKey,
			Reason:      ReasonNotFound,
			Strategy:    StrategyNotFound,
			EvaluatedAt: s.evaluator.Now(),
		}, nil
	}

	res := s.evaluator.Evaluate(flag, user)
	s.metrics.observeEvaluation(res.Strategy, res.Enabled)
	s.logger.DebugContext(ctx, "feature flag evaluated",
		logger.FlagKey(flagKey),
		logger.UserID(user.UserID),
		logger.Reason(res.Reason),
	)
	return res, nil
}

// EvaluateAll evaluates several flags for the same user concurrently.
// Duplicate keys are evaluated once.
func (s *Service) EvaluateAll(ctx context.Context, tenantID string, flagKeys []string, user *UserContext) (EvaluationResponse, error) {
	start := time.Now()
	if tenantID == "" {
		return EvaluationResponse{}, errors.Join(ErrInvalidArgument, errors.New("tenant id cannot be empty"))
	}
	for _, key := range flagKeys {
		if key == "" {
			return EvaluationResponse{}, errors.Join(ErrInvalidArgument, errors.New("flag key cannot be empty"))
		}
	}

	ctx = tenant.WithID(ctx, tenantID)

	keys := slices.Compact(slices.Sorted(slices.Values(flagKeys)))
	results := make(map[string]EvaluationResult, len(keys))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		g.Go(func() error {
			res, err := s.Evaluate(gctx, tenantID, key, user)
			if err != nil {
				return err
			}
			mu.Lock()
			results[key] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return EvaluationResponse{}, err
	}

	resp := EvaluationResponse{
		EvaluationID:   uuid.NewString(),
		Flags:          results,
		EvaluatedAt:    s.evaluator.Now(),
		ProcessingTime: time.Since(start),
	}
	s.logger.DebugContext(ctx, "feature flags evaluated",
		slog.String("evaluation_id", resp.EvaluationID),
		slog.Int("flags", len(results)),
		logger.Duration(resp.ProcessingTime),
	)
	return resp, nil
}

// ListFlags returns the tenant's flags as summaries ordered by key.
func (s *Service) ListFlags(ctx context.Context, tenantID string) ([]FlagSummary, error) {
	if tenantID == "" {
		return nil, errors.Join(ErrInvalidArgument, errors.New("tenant id cannot be empty"))
	}
	ctx = tenant.WithID(ctx, tenantID)

	flags, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	summaries := make([]FlagSummary, 0, len(flags))
	for _, flag := range flags {
		if flag.TenantID != tenantID {
			continue
		}
		summaries = append(summaries, flag.Summary())
	}
	return summaries, nil
}

// GetFlag returns the full flag definition from the repository or ErrFlagNotFound.
func (s *Service) GetFlag(ctx context.Context, tenantID, flagKey string) (*Flag, error) {
	if err := validateKey(tenantID, flagKey); err != nil {
		return nil, err
	}
	return s.repo.Get(tenant.WithID(ctx, tenantID), tenantID, flagKey)
}

// SaveFlag creates or replaces a flag. Cached snapshots are not invalidated
// and may be served until they expire.
func (s *Service) SaveFlag(ctx context.Context, flag *Flag) error {
	if err := flag.Validate(); err != nil {
		return err
	}
	ctx = tenant.WithID(ctx, flag.TenantID)
	if err := s.repo.Set(ctx, flag.TenantID, flag.Key, flag); err != nil {
		s.logger.ErrorContext(ctx, "failed to save feature flag", logger.FlagKey(flag.Key), logger.Error(err))
		return err
	}
	s.logger.InfoContext(ctx, "feature flag saved", logger.FlagKey(flag.Key))
	return nil
}

// DeleteFlag removes a flag. Deleting a missing flag is a no-op.
func (s *Service) DeleteFlag(ctx context.Context, tenantID, flagKey string) error {
	if err := validateKey(tenantID, flagKey); err != nil {
		return err
	}
	ctx = tenant.WithID(ctx, tenantID)
	if err := s.repo.Delete(ctx, tenantID, flagKey); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete feature flag", logger.FlagKey(flagKey), logger.Error(err))
		return err
	}
	s.logger.InfoContext(ctx, "feature flag deleted", logger.FlagKey(flagKey))
	return nil
}

// Enabled is a shorthand for Evaluate that only reports the decision.
func (s *Service) Enabled(ctx context.Context, tenantID, flagKey string, user *UserContext) bool {
	res, err := s.Evaluate(ctx, tenantID, flagKey, user)
	return err == nil && res.Enabled
}

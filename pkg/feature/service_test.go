package feature_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/tenant"
)

func newTestService(t *testing.T, opts []feature.ServiceOption, flags ...*feature.Flag) (*feature.Service, *countingRepository) {
	t.Helper()
	repo := newCountingRepository(t, flags...)
	cache := feature.NewCache(repo, newMemoryStore(t))
	opts = append([]feature.ServiceOption{
		feature.WithEvaluator(feature.NewEvaluator(feature.WithClock(func() time.Time { return testNow }))),
	}, opts...)
	return feature.NewService(repo, cache, opts...), repo
}

func TestService_Evaluate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, repo := newTestService(t, nil,
		&feature.Flag{TenantID: "T1", Key: "dark-mode", Enabled: true},
		&feature.Flag{TenantID: "T1", Key: "beta", Enabled: true, Rollout: &feature.RolloutStrategy{Percentage: 0}},
	)

	t.Run("fully enabled", func(t *testing.T) {
		res, err := svc.Evaluate(ctx, "T1", "dark-mode", feature.NewUserContext("T1", "u1", nil))
		require.NoError(t, err)
		assert.True(t, res.Enabled)
		assert.Equal(t, feature.ReasonFullyEnabled, res.Reason)
		assert.Equal(t, "dark-mode", res.FlagKey)
		assert.Equal(t, testNow, res.EvaluatedAt)
	})

	t.Run("zero percent rollout", func(t *testing.T) {
		u := feature.NewUserContext("T1", "u1", nil)
		res, err := svc.Evaluate(ctx, "T1", "beta", u)
		require.NoError(t, err)
		assert.False(t, res.Enabled)
		assert.Equal(t, fmt.Sprintf("percentage rollout: bucket %d vs 0%%", u.Bucket("beta")), res.Reason)
	})

	t.Run("missing flag", func(t *testing.T) {
		res, err := svc.Evaluate(ctx, "T1", "missing", feature.NewUserContext("T1", "u1", nil))
		require.NoError(t, err)
		assert.False(t, res.Enabled)
		assert.Equal(t, feature.ReasonNotFound, res.Reason)
		assert.Equal(t, "missing", res.FlagKey)
	})

	t.Run("other tenant does not see the flag", func(t *testing.T) {
		res, err := svc.Evaluate(ctx, "T2", "dark-mode", nil)
		require.NoError(t, err)
		assert.False(t, res.Enabled)
		assert.Equal(t, feature.ReasonNotFound, res.Reason)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		_, err := svc.Evaluate(ctx, "", "dark-mode", nil)
		assert.ErrorIs(t, err, feature.ErrInvalidArgument)
		_, err = svc.Evaluate(ctx, "T1", "", nil)
		assert.ErrorIs(t, err, feature.ErrInvalidArgument)
	})

	t.Run("repeated evaluation hits the cache", func(t *testing.T) {
		before := repo.gets.Load()
		for range 5 {
			assert.True(t, svc.Enabled(ctx, "T1", "dark-mode", nil))
		}
		assert.LessOrEqual(t, repo.gets.Load()-before, int64(1))
	})
}

func TestService_EvaluateAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := newTestService(t, nil,
		&feature.Flag{TenantID: "T1", Key: "a", Enabled: true},
		&feature.Flag{TenantID: "T1", Key: "b", Enabled: false},
	)

	resp, err := svc.EvaluateAll(ctx, "T1", []string{"a", "b", "c", "a"}, feature.NewUserContext("T1", "u1", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.EvaluationID)
	assert.Equal(t, testNow, resp.EvaluatedAt)
	require.Len(t, resp.Flags, 3)
	assert.True(t, resp.Flags["a"].Enabled)
	assert.Equal(t, feature.ReasonDisabled, resp.Flags["b"].Reason)
	assert.Equal(t, feature.ReasonNotFound, resp.Flags["c"].Reason)

	_, err = svc.EvaluateAll(ctx, "", []string{"a"}, nil)
	assert.ErrorIs(t, err, feature.ErrInvalidArgument)
	_, err = svc.EvaluateAll(ctx, "T1", []string{"a", ""}, nil)
	assert.ErrorIs(t, err, feature.ErrInvalidArgument)

	empty, err := svc.EvaluateAll(ctx, "T1", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Flags)
}

func TestService_EvaluateAllLogsProcessingTime(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := logger.New(
		logger.WithLevel(slog.LevelDebug),
		logger.WithOutput(&buf),
		logger.WithContextExtractors(tenant.LoggerExtractor()),
	)
	svc, _ := newTestService(t, []feature.ServiceOption{feature.WithLogger(log)},
		&feature.Flag{TenantID: "T1", Key: "a", Enabled: true},
	)

	resp, err := svc.EvaluateAll(context.Background(), "T1", []string{"a", "b"}, nil)
	require.NoError(t, err)

	var found map[string]any
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		if rec["msg"] == "feature flags evaluated" {
			found = rec
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, resp.EvaluationID, found["evaluation_id"])
	assert.EqualValues(t, 2, found["flags"])
	assert.Contains(t, found, "duration")
	assert.Equal(t, "T1", found["tenant_id"])
}

func TestService_ListAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := newTestService(t, nil,
		&feature.Flag{TenantID: "T1", Key: "zeta", Name: "Zeta", Enabled: true, Rollout: &feature.RolloutStrategy{Percentage: 40}},
		&feature.Flag{TenantID: "T1", Key: "alpha", Name: "Alpha"},
		&feature.Flag{TenantID: "T2", Key: "other"},
	)

	summaries, err := svc.ListFlags(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "alpha", summaries[0].FlagKey)
	assert.Equal(t, 100, summaries[0].RolloutPercentage)
	assert.Equal(t, "zeta", summaries[1].FlagKey)
	assert.Equal(t, 40, summaries[1].RolloutPercentage)
	assert.NotNil(t, summaries[0].Tags)

	none, err := svc.ListFlags(ctx, "T9")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.ListFlags(ctx, "")
	assert.ErrorIs(t, err, feature.ErrInvalidArgument)

	flag, err := svc.GetFlag(ctx, "T1", "zeta")
	require.NoError(t, err)
	assert.Equal(t, "Zeta", flag.Name)

	_, err = svc.GetFlag(ctx, "T2", "zeta")
	assert.ErrorIs(t, err, feature.ErrFlagNotFound)
}

func TestService_SaveAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	require.NoError(t, svc.SaveFlag(ctx, &feature.Flag{TenantID: "T1", Key: "new", Enabled: true}))
	flag, err := svc.GetFlag(ctx, "T1", "new")
	require.NoError(t, err)
	assert.True(t, flag.Enabled)

	assert.ErrorIs(t, svc.SaveFlag(ctx, &feature.Flag{TenantID: "T1"}), feature.ErrInvalidArgument)
	assert.ErrorIs(t, svc.SaveFlag(ctx, nil), feature.ErrInvalidArgument)

	require.NoError(t, svc.DeleteFlag(ctx, "T1", "new"))
	_, err = svc.GetFlag(ctx, "T1", "new")
	assert.ErrorIs(t, err, feature.ErrFlagNotFound)
	assert.ErrorIs(t, svc.DeleteFlag(ctx, "T1", ""), feature.ErrInvalidArgument)
}

func TestService_Metrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m, err := feature.NewMetrics(reg)
	require.NoError(t, err)

	repo := newCountingRepository(t, &feature.Flag{TenantID: "T1", Key: "f", Enabled: true})
	cache := feature.NewCache(repo, newMemoryStore(t), feature.WithCacheMetrics(m))
	svc := feature.NewService(repo, cache, feature.WithMetrics(m))

	for range 3 {
		_, err := svc.Evaluate(ctx, "T1", "f", nil)
		require.NoError(t, err)
	}
	_, err = svc.Evaluate(ctx, "T1", "missing", nil)
	require.NoError(t, err)

	assert.Equal(t, 4, testutil.CollectAndCount(reg, "flagkit_evaluations_total", "flagkit_cache_requests_total"))

	again, err := feature.NewMetrics(reg)
	require.NoError(t, err)
	assert.NotNil(t, again)
}

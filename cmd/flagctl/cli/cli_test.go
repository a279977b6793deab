package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/flagkit/cmd/flagctl/cli"
	"github.com/dmitrymomot/flagkit/pkg/feature"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := cli.NewRootCommand("test")
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestEvaluateDemoFlags(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("FLAGS_SEED_DEMO", "true")

	out, err := run(t, "evaluate", "dark-mode", "--tenant", feature.DemoTenantABC, "--user", "u1")
	require.NoError(t, err)

	var res feature.EvaluationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Enabled)
	assert.Equal(t, feature.ReasonFullyEnabled, res.Reason)

	out, err = run(t, "evaluate", "dark-mode", "enhanced-search", "missing", "-t", feature.DemoTenantXYZ)
	require.NoError(t, err)

	var resp feature.EvaluationResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Flags, 3)
	assert.False(t, resp.Flags["dark-mode"].Enabled)
	assert.True(t, resp.Flags["enhanced-search"].Enabled)
	assert.Equal(t, feature.ReasonNotFound, resp.Flags["missing"].Reason)

	out, err = run(t, "list", "-t", feature.DemoTenantABC)
	require.NoError(t, err)
	assert.Contains(t, out, "advanced-claims-search")
	assert.Contains(t, out, "enhanced-search")
}

func TestTenantRequired(t *testing.T) {
	t.Setenv("REDIS_URL", "")

	_, err := run(t, "list")
	assert.Error(t, err)
}

func TestManageFlagsOnRedis(t *testing.T) {
	m := miniredis.RunT(t)
	t.Setenv("REDIS_URL", "redis://"+m.Addr())
	t.Setenv("FLAGS_SEED_DEMO", "false")

	out, err := run(t, "set", "beta", "-t", "T1", "--name", "Beta", "--enabled", "--percentage", "0", "--users", "vip")
	require.NoError(t, err)
	var saved feature.Flag
	require.NoError(t, json.Unmarshal([]byte(out), &saved))
	assert.Equal(t, "Beta", saved.Name)
	require.NotNil(t, saved.Rollout)
	assert.Equal(t, 0, saved.Rollout.Percentage)
	assert.True(t, m.Exists("flag:T1:beta"))

	out, err = run(t, "evaluate", "beta", "-t", "T1", "-u", "vip")
	require.NoError(t, err)
	var res feature.EvaluationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Enabled)
	assert.Equal(t, feature.ReasonAllowListed, res.Reason)

	out, err = run(t, "list", "-t", "T1", "-o", "json")
	require.NoError(t, err)
	var summaries []feature.FlagSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, 0, summaries[0].RolloutPercentage)

	out, err = run(t, "health")
	require.NoError(t, err)
	assert.Equal(t, "redis: ok", strings.TrimSpace(out))

	_, err = run(t, "delete", "beta", "-t", "T1")
	require.NoError(t, err)
	_, err = run(t, "get", "beta", "-t", "T1")
	assert.ErrorIs(t, err, feature.ErrFlagNotFound)
}

func TestSetFromFile(t *testing.T) {
	m := miniredis.RunT(t)
	t.Setenv("REDIS_URL", "redis://"+m.Addr())

	var out bytes.Buffer
	cmd := cli.NewRootCommand("test")
	cmd.SetArgs([]string{"set", "checkout", "-t", "T1", "-f", "-"})
	cmd.SetIn(strings.NewReader(`{"name":"Checkout","enabled":true,"rollout":{"segments":["enterprise"]}}`))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	var saved feature.Flag
	require.NoError(t, json.Unmarshal(out.Bytes(), &saved))
	assert.Equal(t, "T1", saved.TenantID)
	assert.Equal(t, "checkout", saved.Key)
	require.NotNil(t, saved.Rollout)
	assert.Equal(t, 100, saved.Rollout.Percentage)
}

func TestSetFromYAMLFile(t *testing.T) {
	m := miniredis.RunT(t)
	t.Setenv("REDIS_URL", "redis://"+m.Addr())

	path := filepath.Join(t.TempDir(), "flag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: Geo launch
enabled: true
tags: [launch]
rollout:
  percentage: 25
  geographies: [US, CA]
  customRules:
    plan: pro
`), 0o600))

	out, err := run(t, "set", "geo-launch", "-t", "T1", "-f", path, "-o", "yaml")
	require.NoError(t, err)

	var saved map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &saved))
	assert.Equal(t, "geo-launch", saved["flagKey"])
	assert.Equal(t, "Geo launch", saved["name"])
	rollout, ok := saved["rollout"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 25, rollout["percentage"])
	assert.Equal(t, []any{"US", "CA"}, rollout["geographies"])

	out, err = run(t, "evaluate", "geo-launch", "-t", "T1", "-u", "u1", "--attr", "country=FR,plan=pro")
	require.NoError(t, err)
	assert.Contains(t, out, feature.ReasonGeography)
}

func TestUnsupportedOutput(t *testing.T) {
	t.Setenv("REDIS_URL", "")

	_, err := run(t, "list", "-t", "T1", "-o", "xml")
	assert.Error(t, err)
}

func TestFailedCommandReleasesBackend(t *testing.T) {
	m := miniredis.RunT(t)
	t.Setenv("REDIS_URL", "redis://"+m.Addr())

	_, err := run(t, "get", "missing", "-t", "T1")
	require.ErrorIs(t, err, feature.ErrFlagNotFound)

	assert.Eventually(t, func() bool {
		return m.CurrentConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

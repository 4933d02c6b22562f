package seed

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/heartfuse/internal/adapters/http/api"
	service "github.com/okian/heartfuse/internal/app"
	"github.com/okian/heartfuse/internal/domain/types"
	"github.com/okian/heartfuse/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.New(service.WithReportsDir(t.TempDir()))
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(svc.Stop)

	r := chi.NewRouter()
	api.NewServer(svc, svc).Register(context.Background(), r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := &Config{Users: 3, PerUser: 10, Seed: 7}
	a := Generate(cfg)
	b := Generate(cfg)
	require.Equal(t, a, b)
	assert.Len(t, a.Users, 3)

	retries := 0
	for _, s := range a.Submissions {
		if s.Retry {
			retries++
		}
	}
	assert.Equal(t, 3, retries)
	assert.Len(t, a.Submissions, 33)

	c := Generate(&Config{Users: 3, PerUser: 10, Seed: 8})
	assert.NotEqual(t, a.Submissions, c.Submissions)
}

func TestPlanRecordsNewestFirst(t *testing.T) {
	plan := Generate(&Config{Users: 1, PerUser: 9, Seed: 1})
	recs := plan.Records(plan.Users[0])
	require.Len(t, recs, 9)
	for i := 1; i < len(recs); i++ {
		assert.True(t, recs[i-1].CreatedAt.After(recs[i].CreatedAt))
	}
}

func TestVerify(t *testing.T) {
	plan := Generate(&Config{Users: 1, PerUser: 5, Seed: 3})
	recs := plan.Records(plan.Users[0])

	t.Run("no records expects the absence message", func(t *testing.T) {
		assert.NoError(t, Verify(nil, types.FusionReport{Error: "No submissions found. Upload tests to generate a report."}))
		assert.ErrorIs(t, Verify(nil, types.FusionReport{}), ErrMismatch)
	})

	t.Run("wrong overall is a mismatch", func(t *testing.T) {
		two := 2.0
		err := Verify(recs, types.FusionReport{Overall: &two})
		assert.ErrorIs(t, err, ErrMismatch)
	})

	t.Run("missing overall is a mismatch", func(t *testing.T) {
		err := Verify(recs, types.FusionReport{})
		assert.ErrorIs(t, err, ErrMismatch)
		assert.Contains(t, err.Error(), "overall missing")
	})
}

func TestRunAgainstService(t *testing.T) {
	srv := newTestServer(t)
	var out bytes.Buffer
	cfg := &Config{
		BaseURL: srv.URL,
		Users:   4,
		PerUser: 15,
		Workers: 4,
		Timeout: 5 * time.Second,
		Seed:    42,
	}

	stats, err := Run(context.Background(), cfg, &out)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 4*15, stats.Created)
	assert.Equal(t, 4*2, stats.Duplicate)
	assert.Equal(t, 4, stats.Reports)
	assert.Equal(t, 4, stats.Verified)
	assert.Equal(t, 0, stats.Mismatched)
	assert.True(t, stats.Passed())
	assert.Contains(t, out.String(), "PASS")
	assert.Contains(t, out.String(), "Verified")
}

func TestRunRejectsEmptyPlan(t *testing.T) {
	_, err := Run(context.Background(), &Config{Users: 0, PerUser: 1}, io.Discard)
	assert.Error(t, err)
}

func TestRunCountsUnreachableServer(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL
	srv.Close()

	var out bytes.Buffer
	stats, err := Run(context.Background(), &Config{BaseURL: url, Users: 1, PerUser: 2, Workers: 1, Timeout: time.Second, Seed: 1}, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Failed)
	assert.False(t, stats.Passed())
	assert.Contains(t, out.String(), "FAIL")
}

func TestNewCommandFlags(t *testing.T) {
	cmd := NewCommand(io.Discard)
	require.NoError(t, cmd.ParseFlags([]string{"--url", "http://example", "--users", "3", "--per-user", "4", "--workers", "2", "--timeout", "2s", "--seed", "9"}))

	for name, want := range map[string]string{
		"url": "http://example", "users": "3", "per-user": "4", "workers": "2", "timeout": "2s", "seed": "9",
	} {
		f := cmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, want, f.Value.String(), name)
	}
}

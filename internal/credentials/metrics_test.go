package credentials

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/dbmux/pkg/identity"
	"github.com/systmms/dbmux/tests/fakes"
)

func TestRecordersNeverPanic(t *testing.T) {
	// Recording is a no-op until InitMetrics runs, and stays safe after.
	recordCacheHit("noop-test")
	recordCacheMiss("noop-test")
	recordEvictions("noop-test", evictExpired, 3)
	recordEvictions("noop-test", evictCapacity, 0)
	recordResolution("noop-test", 0.25)
	recordResolutionFailure("noop-test", stageAssumeRole)
}

func TestInitMetricsIdempotent(t *testing.T) {
	// A second call must not re-register with the default registry,
	// which would panic.
	InitMetrics()
	InitMetrics()

	assert.True(t, IsMetricsRegistered())
	assert.NotNil(t, GetCacheHitsTotal())
	assert.NotNil(t, GetCacheMissesTotal())
	assert.NotNil(t, GetCacheEvictionsTotal())
	assert.NotNil(t, GetResolutionDuration())
	assert.NotNil(t, GetResolutionFailuresTotal())
}

func TestMetricsCountCacheTraffic(t *testing.T) {
	InitMetrics()

	cache := newIdentityCache("metrics-cache-test")
	cache.put("k", "v")
	cache.get("k")
	cache.get("absent")

	hits := testutil.ToFloat64(GetCacheHitsTotal().WithLabelValues("metrics-cache-test"))
	misses := testutil.ToFloat64(GetCacheMissesTotal().WithLabelValues("metrics-cache-test"))
	assert.Equal(t, 1.0, hits)
	assert.Equal(t, 1.0, misses)
}

func TestMetricsCountEvictionsByReason(t *testing.T) {
	InitMetrics()

	cache := newIdentityCache("metrics-evict-test")
	current := time.Unix(1700000000, 0)
	cache.now = func() time.Time { return current }

	cache.seed("old", "v", current.Add(-maxCacheAge-time.Second))
	cache.put("new", "v")

	expired := testutil.ToFloat64(GetCacheEvictionsTotal().WithLabelValues("metrics-evict-test", evictExpired))
	assert.Equal(t, 1.0, expired)

	for i := 0; i < maxCacheEntries; i++ {
		cache.put(fmt.Sprintf("k%03d", i), "v")
	}

	capacity := testutil.ToFloat64(GetCacheEvictionsTotal().WithLabelValues("metrics-evict-test", evictCapacity))
	assert.Equal(t, 1.0, capacity)
}

func TestMetricsCountResolutionFailures(t *testing.T) {
	InitMetrics()

	before := testutil.ToFloat64(GetResolutionFailuresTotal().WithLabelValues(resolverToken, stageBuildToken))

	resolver, err := NewTokenResolver(fakes.NewFakeSTSClient(), "arn:aws:iam::1:role/r",
		WithTokenBuilder(func(ctx context.Context, endpoint, region, username string, creds aws.CredentialsProvider) (string, error) {
			return "", errors.New("boom")
		}),
	)
	require.NoError(t, err)

	_, err = resolver.ResolvePassword(context.Background(), "u", "h", 1,
		identity.New("arn:aws:iam::1:user/u", nil))
	require.Error(t, err)

	after := testutil.ToFloat64(GetResolutionFailuresTotal().WithLabelValues(resolverToken, stageBuildToken))
	assert.Equal(t, before+1, after)
}

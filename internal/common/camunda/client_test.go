package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-workers/internal/common/config"
	"listing-workers/internal/common/errors"
)

func fastRetry() *RetryConfig {
	return &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"write: broken pipe", true},
		{"rpc error: code = NotFound desc = job not found", false},
		{"permission denied", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(stderrors.New(tt.msg)))
		})
	}
}

func TestExecuteWithRetry_RecoversFromTransientErrors(t *testing.T) {
	attempts := 0
	result, err := executeWithRetry(context.Background(), fastRetry(), func(ctx context.Context) (interface{}, error) {
		attempts++
		if attempts < 3 {
			return nil, stderrors.New("connection reset by peer")
		}
		return "ok", nil
	}, "topology")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestExecuteWithRetry_GivesUp(t *testing.T) {
	attempts := 0
	_, err := executeWithRetry(context.Background(), fastRetry(), func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, stderrors.New("unavailable")
	}, "topology")

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeBrokerUnavailable, stdErr.Code)
	assert.Equal(t, "topology", stdErr.Metadata["operation"])
	assert.Equal(t, 3, attempts)
}

func TestExecuteWithRetry_PermanentErrorIsNotRetried(t *testing.T) {
	attempts := 0
	_, err := executeWithRetry(context.Background(), fastRetry(), func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, stderrors.New("invalid argument")
	}, "complete-job")

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeInternal, stdErr.Code)
	assert.Equal(t, 1, attempts)
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	retry := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}

	_, err := executeWithRetry(ctx, retry, func(ctx context.Context) (interface{}, error) {
		cancel()
		return nil, stderrors.New("timeout")
	}, "topology")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfigFromApp(t *testing.T) {
	cfg := ConfigFromApp(config.CamundaConfig{
		BrokerAddress:  "zeebe:26500",
		Timeout:        5000,
		RequestTimeout: 2000,
	})

	assert.Equal(t, "zeebe:26500", cfg.GatewayAddress)
	assert.Equal(t, 5*time.Second, cfg.ConnectionTimeout)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Same(t, DefaultRetryConfig, cfg.RetryConfig)
}

func TestWorkerName(t *testing.T) {
	assert.Equal(t, "query-listings-worker", workerName("query-listings"))
}

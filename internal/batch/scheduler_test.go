package batch_test

import (
	"context"
	"testing"
	"time"

	"loan-portfolio/internal/batch"
	"loan-portfolio/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFunc func(ctx context.Context) (batch.RefreshResult, error)

func (f runnerFunc) Run(ctx context.Context) (batch.RefreshResult, error) { return f(ctx) }

func TestStartScheduler(t *testing.T) {
	t.Run("runs job on schedule with a deadline", func(t *testing.T) {
		ran := make(chan time.Time, 1)
		job := runnerFunc(func(ctx context.Context) (batch.RefreshResult, error) {
			deadline, ok := ctx.Deadline()
			if ok {
				select {
				case ran <- deadline:
				default:
				}
			}
			return batch.RefreshResult{}, nil
		})

		c, err := batch.StartScheduler(config.PortfolioConfig{RefreshSchedule: "@every 1s", RefreshTimeout: time.Minute}, job, logger)
		require.NoError(t, err)
		defer batch.StopScheduler(context.Background(), c, logger)

		assert.Len(t, c.Entries(), 1)
		select {
		case deadline := <-ran:
			assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
		case <-time.After(3 * time.Second):
			t.Fatal("scheduled job did not run")
		}
	})

	t.Run("defaults an empty schedule", func(t *testing.T) {
		c, err := batch.StartScheduler(config.PortfolioConfig{}, runnerFunc(func(context.Context) (batch.RefreshResult, error) {
			return batch.RefreshResult{}, nil
		}), logger)
		require.NoError(t, err)
		assert.Len(t, c.Entries(), 1)
		batch.StopScheduler(context.Background(), c, logger)
	})

	t.Run("rejects an invalid schedule", func(t *testing.T) {
		_, err := batch.StartScheduler(config.PortfolioConfig{RefreshSchedule: "every tuesday"}, nil, logger)
		assert.Error(t, err)
	})
}

func TestStopScheduler_Nil(t *testing.T) {
	assert.NotPanics(t, func() { batch.StopScheduler(context.Background(), nil, logger) })
}

package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/filmchain/track-shorts/internal/services"
)

type stubJob struct {
	report services.RefreshReport
	err    error
}

func (s stubJob) Run(context.Context) (services.RefreshReport, error) {
	return s.report, s.err
}

func TestRunOnceExitCodes(t *testing.T) {
	tests := []struct {
		name string
		job  stubJob
		want int
	}{
		{"success", stubJob{report: services.RefreshReport{Total: 3, Batches: 1, Updated: 3}}, exitOK},
		{"skipped", stubJob{report: services.RefreshReport{Skipped: true}}, exitOK},
		{"failed", stubJob{err: errors.New("fetch batch 1: quota exceeded")}, exitFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runOnce(context.Background(), tt.job, zap.NewNop()))
		})
	}
}

func TestRunReturnsJobError(t *testing.T) {
	cause := errors.New("apply batch 2: connection reset")

	_, err := run(context.Background(), stubJob{err: cause}, zap.NewNop())
	require.ErrorIs(t, err, cause)
}

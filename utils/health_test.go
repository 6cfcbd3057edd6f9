package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunHealthChecks(t *testing.T) {
	status := RunHealthChecks(context.Background(), map[string]HealthCheck{
		"redis": func(context.Context) error { return nil },
		"mongo": func(context.Context) error { return errors.New("no reachable servers") },
	})

	assert.Equal(t, map[string]bool{"redis": true, "mongo": false}, status.Services)
	assert.False(t, status.Healthy())
	assert.Equal(t, status, GetHealthStatus())

	status = RunHealthChecks(context.Background(), map[string]HealthCheck{
		"redis": func(context.Context) error { return nil },
	})
	assert.True(t, status.Healthy())
}

func TestHealthStatus_EmptyIsHealthy(t *testing.T) {
	assert.True(t, HealthStatus{}.Healthy())
}

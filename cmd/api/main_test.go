package main

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/bootstrap"
	"github.com/cmlabs-hris/hris-performance-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartScheduler(t *testing.T) {
	app := &bootstrap.App{Location: time.UTC}

	s, err := startScheduler(app, &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, s)

	cfg := &config.Config{
		Scheduler: config.SchedulerConfig{Enabled: true, RetrainCron: "0 2 1 * *"},
		Analytics: config.AnalyticsConfig{DefaultClusters: 3},
	}
	s, err = startScheduler(app, cfg)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Len(t, s.Jobs(), 1)
	s.Stop()
}

func TestStartScheduler_BadSpecReturnsError(t *testing.T) {
	cfg := &config.Config{
		Scheduler: config.SchedulerConfig{Enabled: true, RetrainCron: "every day"},
	}
	s, err := startScheduler(&bootstrap.App{Location: time.UTC}, cfg)
	assert.Error(t, err)
	assert.Nil(t, s)
}

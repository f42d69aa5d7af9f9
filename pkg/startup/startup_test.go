package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDependency struct {
	name      string
	dependsOn []string
	failures  int
	started   *[]string
	stopped   *[]string
}

func (f *fakeDependency) GetName() string     { return f.name }
func (f *fakeDependency) DependsOn() []string { return f.dependsOn }
func (f *fakeDependency) Start(ctx context.Context) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("not yet")
	}
	*f.started = append(*f.started, f.name)
	return nil
}
func (f *fakeDependency) Stop(ctx context.Context) error {
	*f.stopped = append(*f.stopped, f.name)
	return nil
}

func newTestStartup(maxAttempts int) *Startup {
	s := NewStartup(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), maxAttempts)
	s.backoffUnit = time.Millisecond
	return s
}

func TestStartup_StartsParentsFirst(t *testing.T) {
	var started, stopped []string
	s := newTestStartup(1)
	s.AddDependency(&fakeDependency{name: "migrations", dependsOn: []string{"postgres"}, started: &started, stopped: &stopped})
	s.AddDependency(&fakeDependency{name: "postgres", started: &started, stopped: &stopped})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"postgres", "migrations"}, started)

	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"postgres", "migrations"}, stopped)
}

func TestStartup_RetriesUntilSuccess(t *testing.T) {
	var started, stopped []string
	s := newTestStartup(3)
	s.AddDependency(&fakeDependency{name: "kafka", failures: 2, started: &started, stopped: &stopped})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StartupStatusStarted, s.Status("kafka"))
}

func TestStartup_GivesUp(t *testing.T) {
	var started, stopped []string
	s := newTestStartup(2)
	s.AddDependency(&fakeDependency{name: "redis", failures: 5, started: &started, stopped: &stopped})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, StartupStatusFailed, s.Status("redis"))
}

func TestStartup_UnknownParent(t *testing.T) {
	var started, stopped []string
	s := newTestStartup(1)
	s.AddDependency(&fakeDependency{name: "migrations", dependsOn: []string{"postgres"}, started: &started, stopped: &stopped})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dependency 'postgres'")
}

package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockMigrator struct {
	mock.Mock
}

func (m *MockMigrator) Up() error { return m.Called().Error(0) }

func (m *MockMigrator) Down(steps int) error { return m.Called(steps).Error(0) }

func (m *MockMigrator) Version() (uint, bool, error) {
	args := m.Called()
	return args.Get(0).(uint), args.Bool(1), args.Error(2)
}

func TestRun(t *testing.T) {
	t.Run("Up", func(t *testing.T) {
		m := new(MockMigrator)
		m.On("Up").Return(nil)
		assert.NoError(t, run(m, "up", 1, zap.NewNop()))
		m.AssertExpectations(t)
	})

	t.Run("Down passes steps", func(t *testing.T) {
		m := new(MockMigrator)
		m.On("Down", 2).Return(nil)
		assert.NoError(t, run(m, "down", 2, zap.NewNop()))
		m.AssertExpectations(t)
	})

	t.Run("Up failure", func(t *testing.T) {
		m := new(MockMigrator)
		m.On("Up").Return(errors.New("dirty database"))
		assert.EqualError(t, run(m, "up", 0, zap.NewNop()), "dirty database")
	})

	t.Run("Version is logged", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		m := new(MockMigrator)
		m.On("Version").Return(uint(2), false, nil)

		require.NoError(t, run(m, "version", 0, zap.New(core)))
		entries := logs.FilterMessage("schema version").All()
		require.Len(t, entries, 1)
		assert.Equal(t, uint64(2), entries[0].ContextMap()["version"])
	})

	t.Run("Unknown mode", func(t *testing.T) {
		m := new(MockMigrator)
		err := run(m, "sideways", 0, zap.NewNop())
		assert.ErrorContains(t, err, "unknown mode")
		m.AssertNotCalled(t, "Up")
	})
}

// Every migration must ship with its rollback.
func TestMigrationFilesArePaired(t *testing.T) {
	ups, err := filepath.Glob(filepath.Join("..", "..", "migrations", "*.up.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, ups)

	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		_, err := os.Stat(down)
		assert.NoError(t, err, "missing rollback for %s", filepath.Base(up))
	}
}

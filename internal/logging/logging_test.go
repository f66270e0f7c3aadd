package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fygallery/internal/config"
)

func TestNewLevelsAndFormats(t *testing.T) {
	logger, closer, err := New(config.LoggingConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	_, _, err = New(config.LoggingConfig{Level: "loud", Format: "text"})
	assert.Error(t, err)
	_, _, err = New(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "fygallery.log")
	logger, closer, err := New(config.LoggingConfig{Level: "info", Format: "text", File: path})
	require.NoError(t, err)

	logger.WithField("src", "images/a.jpg").Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "src=images/a.jpg")
}

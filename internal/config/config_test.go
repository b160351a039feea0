package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8120, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, "panes.yml", config.Manifest.Path)
	assert.True(t, config.Manifest.Watch)
	assert.Equal(t, "tabs", config.Navigation.DefaultMode)
	assert.Equal(t, 150, config.Navigation.TransitionMs)
	assert.Equal(t, 17, config.Navigation.MarkerDelayMs)
	assert.Equal(t, "info", config.Log.Level)
}

func TestLoad_Overrides(t *testing.T) {
	resetViper(t)

	viper.Set("server.port", 9000)
	viper.Set("server.allowed_origins", []string{"http://localhost:9000"})
	viper.Set("manifest.watch", false)
	viper.Set("navigation.default_mode", "accordion")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, []string{"http://localhost:9000"}, config.Server.AllowedOrigins)
	assert.False(t, config.Manifest.Watch)
	assert.Equal(t, "accordion", config.Navigation.DefaultMode)
}

func TestLoad_InvalidPort(t *testing.T) {
	resetViper(t)

	viper.Set("server.port", 99999)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestLoad_InvalidMode(t *testing.T) {
	resetViper(t)

	viper.Set("navigation.default_mode", "carousel")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown default mode")
}

func TestValidate_HostWithPort(t *testing.T) {
	config := &Config{}
	applyDefaults(config)
	config.Server.Host = "localhost:9000"

	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not include a port")
}

func TestConfig_Addr(t *testing.T) {
	config := &Config{}
	applyDefaults(config)

	assert.Equal(t, "localhost:8120", config.Addr())
	assert.Equal(t, "http://localhost:8120", config.URL())
}

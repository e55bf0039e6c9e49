package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeedSoundbars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "soundbars.yaml")
	content := `
soundbars:
  - name: Living Room
    host: 192.168.1.40
    port: 9741
  - name: Bedroom
    host: 192.168.1.41
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	seeds, err := LoadSeedSoundbars(path)
	require.NoError(t, err)
	require.Len(t, seeds, 2)

	assert.Equal(t, "Living Room", seeds[0].Name)
	assert.Equal(t, "192.168.1.40", seeds[0].Host)
	assert.Equal(t, 9741, seeds[0].Port)
	assert.Equal(t, 0, seeds[1].Port, "port defaults happen at registration time")
}

func TestLoadSeedSoundbarsEmptyPath(t *testing.T) {
	seeds, err := LoadSeedSoundbars("")
	require.NoError(t, err)
	assert.Nil(t, seeds)
}

func TestLoadSeedSoundbarsMissingHost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "soundbars.yaml")
	require.NoError(t, os.WriteFile(path, []byte("soundbars:\n  - name: NoHost\n"), 0o644))

	_, err := LoadSeedSoundbars(path)
	assert.ErrorContains(t, err, "host is required")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9741, cfg.DefaultSoundbarPort)
	assert.Equal(t, "soundbarhub", cfg.MQTTTopicPrefix)
}

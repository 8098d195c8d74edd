package ringlight

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/ringlight/internal/led"
	"libdb.so/ringlight/internal/settings"
)

func tempStore(t *testing.T) *settings.Store {
	t.Helper()
	st, err := settings.Open(filepath.Join(t.TempDir(), "settings.toml"))
	require.NoError(t, err)
	return st
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig(tempStore(t))

	assert.Empty(t, cfg.SSID)
	assert.Equal(t, 24, cfg.NumPixels)
	assert.Equal(t, 50*time.Millisecond, cfg.ChaseSpeed)
	assert.Equal(t, 15, cfg.ChaseInterval)
	assert.Equal(t, 3, cfg.NumChasers)
	assert.Equal(t, 2*time.Second, cfg.FadeDuration)
	assert.Equal(t, led.RGB(255, 0, 0), cfg.Lost)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigClampsNumChasers(t *testing.T) {
	for stored, want := range map[int]int{
		-3: 1,
		0:  1,
		1:  1,
		10: 10,
		11: 10,
		99: 10,
	} {
		st := tempStore(t)
		st.SetInt("numChasers", stored)
		assert.Equal(t, want, LoadConfig(st).NumChasers, "stored %d", stored)
	}
}

func TestLoadConfigClampsChannels(t *testing.T) {
	st := tempStore(t)
	st.SetInt("brightness", 999)
	st.SetInt("backgroundRed", -20)

	cfg := LoadConfig(st)
	assert.Equal(t, uint8(255), cfg.Brightness)
	assert.Equal(t, uint8(0), cfg.Background[0])
}

func TestConfigValidate(t *testing.T) {
	cfg := LoadConfig(tempStore(t))
	cfg.NumPixels = 0
	assert.Error(t, cfg.Validate())

	cfg = LoadConfig(tempStore(t))
	cfg.FadeDuration = 0
	assert.Error(t, cfg.Validate())
}

func TestFormFieldsCoverStoreKeys(t *testing.T) {
	st := tempStore(t)
	cfg := LoadConfig(st)

	keys := make(map[string]bool)
	for _, f := range cfg.FormFields() {
		keys[f.Key] = true
	}

	for _, key := range []string{
		"ssid", "pass", "numPixels", "chaseSpeed", "chaseInterval",
		"flashInterval", "numChasers", "flashHold", "fadeDuration",
		"brightness", "flashBrightness",
		"backgroundRed", "backgroundGreen", "backgroundBlue",
		"flashRed", "flashGreen", "flashBlue",
		"lostRed", "lostGreen", "lostBlue",
		"apRed", "apGreen", "apBlue",
	} {
		assert.True(t, keys[key], "missing form field for %q", key)
	}
}

package ringlight

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"libdb.so/ringlight/internal/led"
	"libdb.so/ringlight/internal/portal"
	"libdb.so/ringlight/internal/settings"
)

// MaxChasers is the upper bound on concurrently running chasers. NumChasers
// is always clamped into [1, MaxChasers] after a load or a save.
const MaxChasers = 10

// Config is the persisted device configuration. It is loaded once at boot
// from the settings store and never mutated afterwards; saving new values
// through the portal restarts the daemon instead.
type Config struct {
	// SSID and Pass are the network credentials. An empty SSID puts the
	// device into access point mode.
	SSID string
	Pass string

	// NumPixels is the number of LEDs on the ring.
	NumPixels int
	// ChaseSpeed is the time between chase steps.
	ChaseSpeed time.Duration
	// ChaseInterval is the wall-clock minute modulus for chase triggers.
	// 0 means the chase retriggers continuously.
	ChaseInterval int
	// FlashInterval is the wall-clock minute modulus for flash triggers.
	// 0 means the flash retriggers continuously.
	FlashInterval int
	// NumChasers is the number of simultaneously running chasers.
	NumChasers int
	// FlashHold is how long the flash color is held before fading.
	FlashHold time.Duration
	// FadeDuration is how long the fade from flash to background takes.
	FadeDuration time.Duration

	// Brightness is the normal output brightness.
	Brightness uint8
	// FlashBrightness is the elevated brightness used while flashing and
	// for alert blinking.
	FlashBrightness uint8

	Background  led.RGBColor
	Flash       led.RGBColor
	Lost        led.RGBColor
	AccessPoint led.RGBColor
}

// LoadConfig reads the configuration out of the settings store, substituting
// defaults for missing keys and clamping out-of-range values.
func LoadConfig(st *settings.Store) *Config {
	cfg := &Config{
		SSID: st.String("ssid", ""),
		Pass: st.String("pass", ""),

		NumPixels:     st.Int("numPixels", 24),
		ChaseSpeed:    time.Duration(st.Int("chaseSpeed", 50)) * time.Millisecond,
		ChaseInterval: st.Int("chaseInterval", 15),
		FlashInterval: st.Int("flashInterval", 15),
		NumChasers:    st.Int("numChasers", 3),
		FlashHold:     time.Duration(st.Int("flashHold", 1000)) * time.Millisecond,
		FadeDuration:  time.Duration(st.Int("fadeDuration", 2000)) * time.Millisecond,

		Brightness:      clampChannel(st.Int("brightness", 40)),
		FlashBrightness: clampChannel(st.Int("flashBrightness", 255)),

		Background:  loadColor(st, "background", led.RGB(0, 0, 32)),
		Flash:       loadColor(st, "flash", led.RGB(255, 255, 255)),
		Lost:        loadColor(st, "lost", led.RGB(255, 0, 0)),
		AccessPoint: loadColor(st, "ap", led.RGB(0, 0, 255)),
	}

	if cfg.NumChasers < 1 {
		cfg.NumChasers = 1
	}
	if cfg.NumChasers > MaxChasers {
		cfg.NumChasers = MaxChasers
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.NumPixels < 1 {
		return errors.New("no LEDs configured")
	}
	if c.ChaseSpeed < 0 {
		return errors.New("chase speed must not be negative")
	}
	if c.FadeDuration <= 0 {
		return errors.New("fade duration must be positive")
	}
	if c.NumChasers < 1 || c.NumChasers > MaxChasers {
		return errors.Errorf("numChasers must be within [1, %d]", MaxChasers)
	}
	return nil
}

// FormFields describes the configuration as portal form fields, in the
// order they appear on the settings page. Values reflect the booted
// configuration; a save restarts the daemon, so they never go stale.
func (c *Config) FormFields() []portal.Field {
	ms := func(d time.Duration) string {
		return strconv.Itoa(int(d / time.Millisecond))
	}

	fields := []portal.Field{
		{Key: "ssid", Label: "Network SSID", Kind: portal.Text, Value: c.SSID},
		{Key: "pass", Label: "Network passphrase", Kind: portal.Password, Value: c.Pass},
		{Key: "numPixels", Label: "Ring size (pixels)", Kind: portal.Number, Value: strconv.Itoa(c.NumPixels), Min: 1},
		{Key: "chaseSpeed", Label: "Chase step (ms)", Kind: portal.Number, Value: ms(c.ChaseSpeed)},
		{Key: "chaseInterval", Label: "Chase every (minutes, 0 = always)", Kind: portal.Number, Value: strconv.Itoa(c.ChaseInterval), Max: 59},
		{Key: "flashInterval", Label: "Flash every (minutes, 0 = always)", Kind: portal.Number, Value: strconv.Itoa(c.FlashInterval), Max: 59},
		{Key: "numChasers", Label: "Chasers", Kind: portal.Number, Value: strconv.Itoa(c.NumChasers), Min: 1, Max: MaxChasers},
		{Key: "flashHold", Label: "Flash hold (ms)", Kind: portal.Number, Value: ms(c.FlashHold)},
		{Key: "fadeDuration", Label: "Fade duration (ms)", Kind: portal.Number, Value: ms(c.FadeDuration), Min: 1},
		{Key: "brightness", Label: "Brightness", Kind: portal.Number, Value: strconv.Itoa(int(c.Brightness)), Max: 255},
		{Key: "flashBrightness", Label: "Flash brightness", Kind: portal.Number, Value: strconv.Itoa(int(c.FlashBrightness)), Max: 255},
	}

	colors := []struct {
		prefix string
		label  string
		color  led.RGBColor
	}{
		{"background", "Background", c.Background},
		{"flash", "Flash", c.Flash},
		{"lost", "Wi-Fi lost", c.Lost},
		{"ap", "AP mode", c.AccessPoint},
	}
	for _, cc := range colors {
		for i, ch := range [3]string{"Red", "Green", "Blue"} {
			fields = append(fields, portal.Field{
				Key:   cc.prefix + ch,
				Label: cc.label + " " + ch,
				Kind:  portal.Number,
				Value: strconv.Itoa(int(cc.color[i])),
				Max:   255,
			})
		}
	}

	return fields
}

func loadColor(st *settings.Store, prefix string, def led.RGBColor) led.RGBColor {
	return led.RGB(
		clampChannel(st.Int(prefix+"Red", int(def[0]))),
		clampChannel(st.Int(prefix+"Green", int(def[1]))),
		clampChannel(st.Int(prefix+"Blue", int(def[2]))),
	)
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

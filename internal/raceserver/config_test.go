package raceserver

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, name, contents string) string {
	t.Helper()

	dir, err := ioutil.TempDir("", "ghostrace-config")

	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})

	filename := filepath.Join(dir, name)

	if err := ioutil.WriteFile(filename, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	return filename
}

func TestReadConfig(t *testing.T) {
	t.Run("Overrides are applied on top of defaults", func(t *testing.T) {
		filename := writeTempFile(t, "config.yml", `
server:
  http_port: 9000
  tick_rate: 30
  car_update_interval: 250
race:
  countdown_step: 500ms
  physics:
    max_speed: 2
    acceleration: 0.1
    deceleration: 0.02
    rotate_speed: 0.02
    tilt_rotate_speed: 0.03
`)

		config, err := ReadConfig(filename)

		if err != nil {
			t.Fatal(err)
		}

		if config.Server.HTTPPort != 9000 || config.Server.TickRate != 30 || config.Server.CarUpdateInterval != 250 {
			t.Errorf("server overrides not applied: %+v", config.Server)
		}

		if config.Server.StorePath != "ghostrace.db" || config.Server.StreamInterval != 2 {
			t.Errorf("server defaults lost: %+v", config.Server)
		}

		if config.Race.Physics.MaxSpeed != 2 || config.Race.Physics.TiltRotateSpeed != 0.03 {
			t.Errorf("physics overrides not applied: %+v", config.Race.Physics)
		}

		if config.Race.CountdownStep != 500*time.Millisecond || config.Race.CountdownFrom != 3 {
			t.Errorf("countdown config incorrect: %s from %d", config.Race.CountdownStep, config.Race.CountdownFrom)
		}

		if len(config.Track.Track) != 4 {
			t.Errorf("expected the default track, got %d rects", len(config.Track.Track))
		}
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := ReadConfig(filepath.Join(os.TempDir(), "ghostrace-does-not-exist.yml"))

		if err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("Invalid values are rejected", func(t *testing.T) {
		for name, contents := range map[string]string{
			"tick rate":      "server:\n  tick_rate: 0\n",
			"interval":       "server:\n  stream_interval: -1\n",
			"finish bands":   "race:\n  finish_line:\n    tolerance: 60\n    departure_threshold: 50\n",
			"no geometry":    "track:\n  track: []\n",
			"malformed yaml": "server: [\n",
		} {
			t.Run(name, func(t *testing.T) {
				if _, err := ReadConfig(writeTempFile(t, "config.yml", contents)); err == nil {
					t.Errorf("expected an error")
				}
			})
		}
	})
}

func TestTrackConfigSurfaces(t *testing.T) {
	track, terrain := DefaultTrackConfig().Surfaces()

	if track == nil || terrain == nil {
		t.Fatal("expected both track and terrain surfaces")
	}

	empty := TrackConfig{}
	track, terrain = empty.Surfaces()

	if track != nil || terrain != nil {
		t.Errorf("expected no surfaces for an empty track config")
	}
}

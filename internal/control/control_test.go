package control

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"justapengu.in/ghostrace/internal/race"
)

func TestLineParserFeed(t *testing.T) {
	for _, test := range []struct {
		name    string
		chunks  []string
		values  []float64
		pending string
	}{
		{name: "single line", chunks: []string{"0.5\n"}, values: []float64{0.5}},
		{name: "split across chunks", chunks: []string{"-0.", "7", "5\n"}, values: []float64{-0.75}},
		{name: "several lines in one chunk", chunks: []string{"1\n2\n3\n"}, values: []float64{1, 2, 3}},
		{name: "incomplete line is held", chunks: []string{"0.1\n0.2"}, values: []float64{0.1}, pending: "0.2"},
		{name: "whitespace and carriage returns", chunks: []string{"  0.3 \r\n\t-1\r\n"}, values: []float64{0.3, -1}},
		{name: "blank and garbage lines skipped", chunks: []string{"\n\nabc\n0.4\n--\n"}, values: []float64{0.4}},
	} {
		t.Run(test.name, func(t *testing.T) {
			var (
				parser LineParser
				values []float64
			)

			for _, chunk := range test.chunks {
				values = append(values, parser.Feed([]byte(chunk))...)
			}

			if len(values) != len(test.values) {
				t.Fatalf("expected %v, got %v", test.values, values)
			}

			for i := range values {
				if values[i] != test.values[i] {
					t.Errorf("expected %v, got %v", test.values, values)
					break
				}
			}

			if parser.Pending() != test.pending {
				t.Errorf("expected pending %q, got %q", test.pending, parser.Pending())
			}
		})
	}
}

func TestSourceModes(t *testing.T) {
	source := NewSource(logrus.New())

	source.SetKey(KeyForward, true)
	source.SetKey(KeyRotateLeft, true)

	if intent := source.Intent(); !intent.Forward || !intent.RotateLeft || intent.RotateRight {
		t.Errorf("unexpected keyboard intent: %+v", intent)
	}

	source.ApplyTilt(0.9)

	if intent := source.Intent(); intent.RotateRight {
		t.Errorf("tilt readings should be ignored in keyboard mode")
	}

	source.SetMode(race.ControlModeTilt)

	if intent := source.Intent(); !intent.Forward || intent.RotateLeft || intent.RotateRight {
		t.Errorf("expected tilt mode to clear rotation and drive forward, got %+v", intent)
	}

	for _, test := range []struct {
		rotation    float64
		left, right bool
	}{
		{rotation: -0.5, left: true},
		{rotation: -0.15},
		{rotation: 0},
		{rotation: 0.15},
		{rotation: 0.16, right: true},
		{rotation: 1, right: true},
	} {
		source.ApplyTilt(test.rotation)

		intent := source.Intent()

		if intent.RotateLeft != test.left || intent.RotateRight != test.right || !intent.Forward {
			t.Errorf("rotation %f: unexpected intent %+v", test.rotation, intent)
		}
	}

	source.SetMode(race.ControlModeKeyboard)

	if intent := source.Intent(); intent != (race.ControlIntent{}) {
		t.Errorf("expected keyboard mode to clear the intent, got %+v", intent)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(time.Second)

	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for condition")
		}

		time.Sleep(5 * time.Millisecond)
	}
}

func TestTiltBridge(t *testing.T) {
	logger := logrus.New()
	source := NewSource(logger)
	bridge := NewTiltBridge(source, logger)

	failing := func(ctx context.Context) (io.ReadCloser, error) {
		return nil, errors.New("no such device")
	}

	if bridge.Connect(context.Background(), failing) {
		t.Fatalf("expected connect to report failure")
	}

	if source.Mode() != race.ControlModeKeyboard {
		t.Errorf("a failed connect should leave keyboard mode alone")
	}

	r, w := io.Pipe()

	if !bridge.Connect(context.Background(), func(ctx context.Context) (io.ReadCloser, error) { return r, nil }) {
		t.Fatalf("expected connect to succeed")
	}

	if bridge.Connect(context.Background(), func(ctx context.Context) (io.ReadCloser, error) { return r, nil }) {
		t.Errorf("expected a second connect to be rejected")
	}

	if source.Mode() != race.ControlModeTilt {
		t.Fatalf("expected tilt mode after connecting")
	}

	if _, err := w.Write([]byte("-0.")); err != nil {
		t.Fatal(err)
	}

	if _, err := w.Write([]byte("8\n")); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return source.Intent().RotateLeft })

	if _, err := w.Write([]byte("nonsense\n")); err != nil {
		t.Fatal(err)
	}

	if _, err := w.Write([]byte("0.01\n")); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return !source.Intent().RotateLeft })

	if !bridge.Disconnect() {
		t.Fatalf("expected disconnect to succeed")
	}

	if bridge.Connected() || source.Mode() != race.ControlModeKeyboard {
		t.Errorf("expected keyboard mode after disconnecting")
	}
}

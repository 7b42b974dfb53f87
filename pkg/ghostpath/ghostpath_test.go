package ghostpath

import (
	"bytes"
	"image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cj123/ini"
	"github.com/sirupsen/logrus"

	"justapengu.in/ghostrace/internal/race"
)

var testPath = race.GhostPath{
	{X: -50, Y: 1, Z: -140, Rotation: 3.14},
	{X: -50, Y: 1, Z: -200, Rotation: 3.14},
	{X: 30, Y: 2, Z: -200, Rotation: 1.57},
}

func TestRead(t *testing.T) {
	for _, test := range []struct {
		name   string
		data   string
		frames int
		err    bool
	}{
		{name: "plain", data: `[{"x": 1, "y": 2, "z": 3, "rotation": 0.5}]`, frames: 1},
		{name: "byte order mark", data: "\xef\xbb\xbf" + `[{"x": 1, "y": 2, "z": 3, "rotation": 0.5}, {"x": 2}]`, frames: 2},
		{name: "empty array", data: `[]`},
		{name: "malformed", data: `[{"x": 1,`, err: true},
		{name: "wrong shape", data: `{"x": 1}`, err: true},
	} {
		t.Run(test.name, func(t *testing.T) {
			path, err := Read(strings.NewReader(test.data))

			if (err != nil) != test.err {
				t.Fatalf("expected err=%t, got %v", test.err, err)
			}

			if len(path) != test.frames {
				t.Errorf("expected %d frames, got %d", test.frames, len(path))
			}
		})
	}
}

func TestWriteThenRead(t *testing.T) {
	buf := new(bytes.Buffer)

	if err := Write(buf, testPath); err != nil {
		t.Fatal(err)
	}

	path, err := Read(buf)

	if err != nil {
		t.Fatal(err)
	}

	if len(path) != len(testPath) || path[2] != testPath[2] {
		t.Errorf("expected %v, got %v", testPath, path)
	}
}

func TestLoadDegradesToEmptyPath(t *testing.T) {
	dir, err := ioutil.TempDir("", "ghostpath")

	if err != nil {
		t.Fatal(err)
	}

	defer os.RemoveAll(dir)

	broken := filepath.Join(dir, "broken.json")

	if err := ioutil.WriteFile(broken, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, filename := range []string{broken, filepath.Join(dir, "missing.json")} {
		if path := Load(filename, logrus.New()); path == nil || len(path) != 0 {
			t.Errorf("%s: expected an empty path, got %v", filename, path)
		}
	}

	good := filepath.Join(dir, "good.json")

	if err := WriteFile(good, testPath); err != nil {
		t.Fatal(err)
	}

	if path := Load(good, logrus.New()); len(path) != len(testPath) {
		t.Errorf("expected %d frames, got %d", len(testPath), len(path))
	}
}

func TestLength(t *testing.T) {
	if length := Length(testPath); length != 140 {
		t.Errorf("expected length 140, got %f", length)
	}

	if length := Length(nil); length != 0 {
		t.Errorf("expected empty path to have no length, got %f", length)
	}
}

func TestTrackMapRenderer(t *testing.T) {
	finish := race.DefaultFinishLine()
	renderer := NewTrackMapRenderer(testPath, testPath[:2], &finish)

	buf := new(bytes.Buffer)

	data, err := renderer.Render(buf)

	if err != nil {
		t.Fatal(err)
	}

	img, err := png.Decode(buf)

	if err != nil {
		t.Fatal(err)
	}

	// x spans -60 (finish tolerance) to 30, z spans -200 to -130
	if img.Bounds().Dx() != 90+padding*2 || img.Bounds().Dy() != 70+padding*2 {
		t.Errorf("unexpected image size: %v", img.Bounds())
	}

	if data.Width != float64(img.Bounds().Dx()) || data.OffsetX != 60 || data.OffsetZ != 200 || data.Frames != 3 {
		t.Errorf("unexpected map data: %+v", data)
	}

	dir, err := ioutil.TempDir("", "ghostpath")

	if err != nil {
		t.Fatal(err)
	}

	defer os.RemoveAll(dir)

	iniPath := filepath.Join(dir, "map.ini")

	if err := data.Save(iniPath); err != nil {
		t.Fatal(err)
	}

	f, err := ini.Load(iniPath)

	if err != nil {
		t.Fatal(err)
	}

	if width := f.Section("PARAMETERS").Key("WIDTH").MustFloat64(0); width != data.Width {
		t.Errorf("expected WIDTH %f in map.ini, got %f", data.Width, width)
	}
}

// Package ghostpath reads, writes and draws recorded ghost paths.
package ghostpath

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/dimchansky/utfbom"
	"github.com/pkg/errors"

	"justapengu.in/ghostrace/internal/race"
)

// Read decodes a JSON array of {x, y, z, rotation} frames. A leading byte order mark is skipped.
func Read(r io.Reader) (race.GhostPath, error) {
	var path race.GhostPath

	if err := json.NewDecoder(utfbom.SkipOnly(r)).Decode(&path); err != nil {
		return nil, errors.Wrap(err, "ghostpath: could not decode path")
	}

	return path, nil
}

func ReadFile(filename string) (race.GhostPath, error) {
	f, err := os.Open(filename)

	if err != nil {
		return nil, errors.Wrapf(err, "ghostpath: could not open %s", filename)
	}

	defer f.Close()

	return Read(f)
}

// Load reads a path file for racing against. Missing or malformed files are logged and give an empty path, which
// leaves the ghost parked on the grid.
func Load(filename string, logger race.Logger) race.GhostPath {
	path, err := ReadFile(filename)

	if err != nil {
		logger.WithError(err).Warnf("Could not load ghost path from %s, continuing without a ghost", filename)
		return race.GhostPath{}
	}

	return path
}

func Write(w io.Writer, path race.GhostPath) error {
	if path == nil {
		path = race.GhostPath{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return errors.Wrap(enc.Encode(path), "ghostpath: could not encode path")
}

func WriteFile(filename string, path race.GhostPath) error {
	f, err := os.Create(filename)

	if err != nil {
		return errors.Wrapf(err, "ghostpath: could not create %s", filename)
	}

	defer f.Close()

	return Write(f, path)
}

// Bounds returns the horizontal extent of path.
func Bounds(path race.GhostPath) (minX, minZ, maxX, maxZ float64) {
	if len(path) == 0 {
		return 0, 0, 0, 0
	}

	minX, minZ = math.Inf(1), math.Inf(1)
	maxX, maxZ = math.Inf(-1), math.Inf(-1)

	for _, frame := range path {
		minX = math.Min(minX, frame.X)
		minZ = math.Min(minZ, frame.Z)
		maxX = math.Max(maxX, frame.X)
		maxZ = math.Max(maxZ, frame.Z)
	}

	return minX, minZ, maxX, maxZ
}

// Length is the horizontal distance travelled along path.
func Length(path race.GhostPath) float64 {
	var length float64

	for i := 1; i < len(path); i++ {
		length += math.Hypot(path[i].X-path[i-1].X, path[i].Z-path[i-1].Z)
	}

	return length
}

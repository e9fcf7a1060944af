// Package geometry generates the point-cloud artifacts the simulator consumes.
// Artifacts are content-addressed by the sanitized parameters, so a repeated
// parameter set reuses the file generated for it the first time.
package geometry

import (
	"bufio"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/ssep-lab/ssep-search/search"
)

// DefaultPoints is the number of points written per artifact.
const DefaultPoints = 100

// pointSpacing is the x distance between consecutive points, in meters.
const pointSpacing = 1e-3

// header is the first line of every artifact.
const header = "# .PCD MOCK (x y z)"

// PointCloud generates stacked-electrode point clouds under Dir.
// It is safe for concurrent use; identical in-flight requests share one write.
type PointCloud struct {
	Dir    string
	Points int

	group singleflight.Group
}

// NewPointCloud creates a PointCloud writing into dir.
func NewPointCloud(dir string, points int) *PointCloud {
	if points <= 0 {
		points = DefaultPoints
	}
	return &PointCloud{Dir: dir, Points: points}
}

// Provide implements search.GeometryProvider. The parameters are sanitized
// before hashing; an existing artifact is returned without being rewritten.
func (pc *PointCloud) Provide(params search.ParameterSet) (string, error) {
	p := search.Clamp(params)
	key, err := Hash(p)
	if err != nil {
		return "", err
	}
	path := filepath.Join(pc.Dir, key+".pcd")

	v, err, _ := pc.group.Do(key, func() (interface{}, error) {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("checking geometry artifact: %w", err)
		}
		if err := pc.write(path, p); err != nil {
			return "", err
		}
		logrus.Debugf("generated geometry %s for %v", path, p)
		return path, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Hash returns the content address of p: the first 12 hex digits of the SHA-1
// of its canonical JSON. Note is not part of the address.
func Hash(p search.ParameterSet) (string, error) {
	canonical := map[string]interface{}{
		"V_kV":   p.VoltageKV,
		"gap_m":  p.GapM,
		"phi":    p.Phi,
		"stages": p.Stages,
	}
	payload, err := json.Marshal(canonical) // map keys are emitted sorted
	if err != nil {
		return "", fmt.Errorf("hashing parameters: %w", err)
	}
	sum := sha1.Sum(payload)
	return hex.EncodeToString(sum[:])[:12], nil
}

// write renders the artifact to a temp file and renames it into place, so a
// partially written file never appears under its final name.
func (pc *PointCloud) write(path string, p search.ParameterSet) error {
	if err := os.MkdirAll(pc.Dir, 0o755); err != nil {
		return fmt.Errorf("creating geometry dir: %w", err)
	}
	tmp, err := os.CreateTemp(pc.Dir, ".pcd-*.tmp")
	if err != nil {
		return fmt.Errorf("creating geometry artifact: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := bufio.NewWriter(tmp)
	fmt.Fprintln(w, header)
	stages := max(1, p.Stages)
	for i := 0; i < pc.Points; i++ {
		x := float64(i) * pointSpacing
		y := float64(i%stages) * p.GapM
		fmt.Fprintf(w, "%.6f %.6f %.6f\n", x, y, 0.0)
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing geometry artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing geometry artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming geometry artifact: %w", err)
	}
	return nil
}

// Static is a GeometryProvider that always returns a user-supplied artifact.
type Static string

// Provide implements search.GeometryProvider for Static.
func (s Static) Provide(search.ParameterSet) (string, error) {
	if _, err := os.Stat(string(s)); err != nil {
		return "", fmt.Errorf("geometry file: %w", err)
	}
	return string(s), nil
}

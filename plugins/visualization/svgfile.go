package visualization

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Readm/cluster_map/visual"
)

// SVGFile keeps an SVG rendering of the latest frame at a path. Each write goes to a temporary
// file in the same directory and is renamed over the target, so readers never see a partial map.
type SVGFile struct {
	path string
	log  *log.Entry
}

// NewSVGFile checks that path's directory exists and returns a publisher writing to it.
func NewSVGFile(path string) (*SVGFile, error) {
	if path == "" {
		return nil, errors.New("svg snapshot path is empty")
	}
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "svg snapshot directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("svg snapshot directory %s is not a directory", dir)
	}
	return &SVGFile{path: path, log: log.WithField("component", "svg-snapshot")}, nil
}

// Publish implements visual.FramePublisher. Failures are logged and the previous file is kept.
func (s *SVGFile) Publish(frame *visual.Frame) {
	if err := s.write(frame); err != nil {
		s.log.WithError(err).Warn("writing svg snapshot")
	}
}

func (s *SVGFile) write(frame *visual.Frame) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".clustermap-*.svg")
	if err != nil {
		return errors.Wrap(err, "creating snapshot file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := frame.WriteSVG(tmp); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "rendering snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing snapshot file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "replacing snapshot")
}

package exporter

import (
	"errors"
	"io/fs"

	"github.com/jsonleex/wr-exporter/models"
)

// Stater reports the byte size of a persisted artifact. Implementations must
// return an error matching fs.ErrNotExist for a missing artifact.
type Stater interface {
	Stat(path string) (int64, error)
}

// Verdict is the classification of one captured artifact.
type Verdict struct {
	Empty bool
	Size  int64
}

// Detector classifies screenshots as blank renders by byte size.
//
// A blank reader page compresses to an almost constant size for a fixed
// viewport and stylesheet, so no pixel comparison is done. The threshold is
// tied to those settings; see config.DefaultEmptyThreshold.
type Detector struct {
	threshold int64
	stat      Stater
}

// NewDetector creates a Detector that treats artifacts of at most threshold
// bytes as empty.
func NewDetector(threshold int64, stat Stater) *Detector {
	return &Detector{threshold: threshold, stat: stat}
}

// Threshold returns the configured blank page size, margin included.
func (d *Detector) Threshold() int64 { return d.threshold }

// Classify stats the artifact and compares its size to the threshold.
// A size exactly equal to the threshold is empty.
func (d *Detector) Classify(a Artifact) (Verdict, error) {
	size, err := d.stat.Stat(a.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Verdict{}, models.NewExportError(
				models.ErrCodeArtifactNotFound,
				"artifact missing at classification: "+a.Path,
				err,
			)
		}
		return Verdict{}, models.NewExportError(
			models.ErrCodeInternal,
			"failed to stat artifact "+a.Path,
			err,
		)
	}
	return Verdict{Empty: size <= d.threshold, Size: size}, nil
}

// nextEmptyRun applies one verdict to the consecutive-empty counter: +1 for
// empty, -1 floored at 0 otherwise.
func nextEmptyRun(run int, v Verdict) int {
	if v.Empty {
		return run + 1
	}
	return max(0, run-1)
}

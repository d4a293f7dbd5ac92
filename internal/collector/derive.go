package collector

import (
	"fmt"
	"math"
)

// DefaultWhitespacePercent is a conservative policy estimate of how much of
// the database file is reclaimable whitespace. The probe does not inspect
// the database internals for the true value; this is an estimate, not a
// measurement.
const DefaultWhitespacePercent = 20.0

const bytesPerMB = 1 << 20

// Metrics is the immutable computed result bundle for one run.
type Metrics struct {
	DatabasePath      string
	DatabaseSizeMB    float64
	WhitespaceMB      float64
	WhitespacePercent float64
	DriveFreeMB       float64
	DriveUsedPercent  float64
}

// Derive computes the report values from a raw sample. whitespacePercent is
// the assumed reclaimable share of the database file. A drive reporting zero
// total size is a hard error; NaN or Inf must never reach a report.
func Derive(raw Raw, whitespacePercent float64) (Metrics, error) {
	if raw.DriveTotalBytes == 0 {
		return Metrics{}, fmt.Errorf("drive information unavailable for %q: total size reported as zero", raw.DatabasePath)
	}

	dbSizeMB := round2(float64(raw.DatabaseSizeBytes) / bytesPerMB)
	total := float64(raw.DriveTotalBytes)
	free := float64(raw.DriveFreeBytes)

	return Metrics{
		DatabasePath:      raw.DatabasePath,
		DatabaseSizeMB:    dbSizeMB,
		WhitespaceMB:      round2(dbSizeMB * whitespacePercent / 100),
		WhitespacePercent: whitespacePercent,
		DriveFreeMB:       round2(free / bytesPerMB),
		DriveUsedPercent:  round2((total - free) / total * 100),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

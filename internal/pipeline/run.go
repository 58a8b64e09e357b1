package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// StampLayout names the run folder and log file.
	StampLayout = "2006-01-02_15-04-05"
	MetricsFile = "metrics.prom"
)

// RunContext describes where a single run writes its artifacts.
type RunContext struct {
	ID        uuid.UUID
	Endpoint  string
	StartedAt time.Time
	Stamp     string
	Dir       string
	LogPath   string
}

// NewRunContext creates <outputDir>/<stamp>/ for the run.
func NewRunContext(outputDir, endpoint string, startedAt time.Time) (*RunContext, error) {
	stamp := startedAt.Format(StampLayout)
	dir := filepath.Join(outputDir, stamp)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating run folder %s", dir)
	}

	return &RunContext{
		ID:        uuid.New(),
		Endpoint:  endpoint,
		StartedAt: startedAt,
		Stamp:     stamp,
		Dir:       dir,
		LogPath:   filepath.Join(dir, fmt.Sprintf("inventory_%s.log", stamp)),
	}, nil
}

func (r *RunContext) PathFor(name string) string {
	return filepath.Join(r.Dir, name)
}

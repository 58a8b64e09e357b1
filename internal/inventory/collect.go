package inventory

import (
	"context"
	"fmt"

	"github.com/kubev2v/inventory-report/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultBatchSize = 200

type ErrInvalidBatchSize struct {
	error
}

func NewErrInvalidBatchSize(size int) *ErrInvalidBatchSize {
	return &ErrInvalidBatchSize{fmt.Errorf("batch size must be greater than 0, got %d", size)}
}

// Batch is a contiguous [Start, End) slice of an entity list.
type Batch struct {
	Index int
	Start int
	End   int
}

func (b Batch) Len() int {
	return b.End - b.Start
}

// Partition splits n entities into batches of at most size entities; the last
// batch may be shorter.
func Partition(n, size int) ([]Batch, error) {
	if size <= 0 {
		return nil, NewErrInvalidBatchSize(size)
	}
	batches := make([]Batch, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		batches = append(batches, Batch{Index: len(batches), Start: start, End: min(start+size, n)})
	}
	return batches, nil
}

type CollectOptions struct {
	BatchSize int
	// Workers bounds how many batches are processed at once. Values below 2
	// keep collection sequential.
	Workers int
	Metrics *metrics.Recorder
	// OnBatch is called before a batch is processed.
	OnBatch func(b Batch, total int)
}

// Collect turns entities into records batch by batch. Records keep the input
// order whatever the number of workers: each one is written to the index of
// its entity once fully built.
func Collect[E, R any](ctx context.Context, entities []E, schema Schema[E, R], opts CollectOptions) ([]R, error) {
	batches, err := Partition(len(entities), opts.BatchSize)
	if err != nil {
		return nil, err
	}

	logger := zap.S().Named("collector")
	kind := string(schema.Kind)
	records := make([]R, len(entities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))

	for _, b := range batches {
		g.Go(func() error {
			if opts.OnBatch != nil {
				opts.OnBatch(b, len(batches))
			}
			logger.Infof("Collecting %s batch %d/%d (%d entities)", kind, b.Index+1, len(batches), b.Len())

			for i := b.Start; i < b.End; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				entity := entities[i]
				records[i] = schema.Build(gctx, entity, func(column string, err error) {
					opts.Metrics.IncFieldFault(kind, column)
					logger.Debugf("%s %q: field %s unavailable: %v", kind, label(schema, entity), column, err)
				})
			}

			opts.Metrics.IncBatch(kind)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	opts.Metrics.AddRecords(kind, len(records))
	return records, nil
}

func label[E, R any](schema Schema[E, R], entity E) (name string) {
	if schema.Label == nil {
		return "?"
	}
	defer func() {
		if recover() != nil {
			name = "?"
		}
	}()
	return schema.Label(entity)
}

package inventory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/kubev2v/inventory-report/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeVMs(n int) []fakeVM {
	vms := make([]fakeVM, n)
	for i := range vms {
		vms[i] = fakeVM{name: fmt.Sprintf("vm-%04d", i), cpus: int32(i%8 + 1)}
		if i%3 == 0 {
			vms[i].guest = &fakeGuest{ips: []string{fmt.Sprintf("10.0.%d.%d", i/250, i%250)}}
		}
	}
	return vms
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		size  int
		sizes []int
	}{
		{name: "empty list", n: 0, size: 200, sizes: []int{}},
		{name: "single short batch", n: 5, size: 200, sizes: []int{5}},
		{name: "exact multiple", n: 400, size: 200, sizes: []int{200, 200}},
		{name: "trailing short batch", n: 450, size: 200, sizes: []int{200, 200, 50}},
		{name: "batch of one", n: 3, size: 1, sizes: []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches, err := Partition(tt.n, tt.size)
			require.NoError(t, err)

			sizes := []int{}
			next := 0
			for i, b := range batches {
				assert.Equal(t, i, b.Index)
				assert.Equal(t, next, b.Start)
				next = b.End
				sizes = append(sizes, b.Len())
			}
			assert.Equal(t, tt.sizes, sizes)
			assert.Equal(t, tt.n, next)
		})
	}
}

func TestPartitionRejectsNonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := Partition(10, size)
		var invalid *ErrInvalidBatchSize
		assert.ErrorAs(t, err, &invalid)
	}
}

func TestCollectIsPartitionInvariant(t *testing.T) {
	entities := fakeVMs(97)
	schema := fakeSchema()

	reference := make([]VMRecord, 0, len(entities))
	for _, e := range entities {
		reference = append(reference, schema.Build(context.Background(), e, nil))
	}

	for _, batchSize := range []int{1, 2, 7, 50, 96, 97, 98, 1000} {
		for _, workers := range []int{1, 4} {
			t.Run(fmt.Sprintf("batch=%d workers=%d", batchSize, workers), func(t *testing.T) {
				records, err := Collect(context.Background(), entities, schema, CollectOptions{
					BatchSize: batchSize,
					Workers:   workers,
				})
				require.NoError(t, err)
				assert.Equal(t, reference, records)
			})
		}
	}
}

func TestCollectBatches450VMs(t *testing.T) {
	var (
		mu    sync.Mutex
		sizes []int
	)
	rec := metrics.NewRecorder()

	records, err := Collect(context.Background(), fakeVMs(450), fakeSchema(), CollectOptions{
		BatchSize: 200,
		Metrics:   rec,
		OnBatch: func(b Batch, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 3, total)
			sizes = append(sizes, b.Len())
		},
	})

	require.NoError(t, err)
	assert.Len(t, records, 450)
	assert.Equal(t, []int{200, 200, 50}, sizes)
	assert.Equal(t, "vm-0000", records[0].Name.String())
	assert.Equal(t, "vm-0449", records[449].Name.String())

	kind := string(KindVM)
	assert.Equal(t, 3.0, testutil.ToFloat64(rec.Batches().WithLabelValues(kind)))
	assert.Equal(t, 450.0, testutil.ToFloat64(rec.Records().WithLabelValues(kind)))
	assert.Equal(t, 300.0, testutil.ToFloat64(rec.FieldFaults().WithLabelValues(kind, "IPAddresses")))
}

func TestCollectRejectsInvalidBatchSize(t *testing.T) {
	_, err := Collect(context.Background(), fakeVMs(3), fakeSchema(), CollectOptions{BatchSize: 0})
	var invalid *ErrInvalidBatchSize
	assert.ErrorAs(t, err, &invalid)
}

func TestCollectEmptyList(t *testing.T) {
	records, err := Collect(context.Background(), []fakeVM{}, fakeSchema(), CollectOptions{BatchSize: 10})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCollectStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, fakeVMs(10), fakeSchema(), CollectOptions{BatchSize: 5})
	assert.ErrorIs(t, err, context.Canceled)
}

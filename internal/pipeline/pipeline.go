package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/kubev2v/inventory-report/internal/inventory"
	"github.com/kubev2v/inventory-report/internal/report"
	"github.com/kubev2v/inventory-report/internal/retry"
	"github.com/kubev2v/inventory-report/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/vmware/govmomi/vim25/mo"
	"go.uber.org/zap"
)

const disconnectTimeout = 30 * time.Second

// Session is the connection handle owned by a run.
type Session interface {
	Identity() inventory.Identity
	ListVMs(ctx context.Context) ([]mo.VirtualMachine, error)
	ListHosts(ctx context.Context) ([]mo.HostSystem, error)
	ListDatastores(ctx context.Context) ([]mo.Datastore, error)
	VMSchema() inventory.Schema[mo.VirtualMachine, inventory.VMRecord]
	HostSchema() inventory.Schema[mo.HostSystem, inventory.HostRecord]
	DatastoreSchema() inventory.Schema[mo.Datastore, inventory.DatastoreRecord]
	Disconnect(ctx context.Context) error
}

// Connector opens a new session. It is called once per connection attempt.
type Connector func(ctx context.Context) (Session, error)

// ErrEnumeration means a whole entity category could not be listed.
type ErrEnumeration struct {
	error
	Kind inventory.Kind
}

func NewErrEnumeration(kind inventory.Kind, err error) *ErrEnumeration {
	return &ErrEnumeration{error: errors.Wrapf(err, "listing %s", kind), Kind: kind}
}

func (e *ErrEnumeration) Unwrap() error {
	return e.error
}

type Options struct {
	BatchSize  int
	Workers    int
	RetryCount int
	RetryDelay time.Duration
}

// Result is what a run hands back to its caller.
type Result struct {
	Inventory    *inventory.Inventory
	ExportFaults []error
}

// Orchestrator sequences a single collection run.
type Orchestrator struct {
	connect Connector
	run     *RunContext
	opts    Options
	metrics *metrics.Recorder

	mu         sync.Mutex
	state      State
	stageStart time.Time
}

func New(connect Connector, run *RunContext, opts Options, m *metrics.Recorder) *Orchestrator {
	return &Orchestrator{
		connect: connect,
		run:     run,
		opts:    opts,
		metrics: m,
		state:   Idle,
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Run connects, collects, aggregates, exports and disconnects. Export faults
// are reported in the result and do not fail the run. Once connected, the
// session is always disconnected, whatever the outcome.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	logger := zap.S().Named("pipeline")
	logger.Infof("Starting inventory run %s against %s", o.run.ID, o.run.Endpoint)

	o.transition(Connecting)
	session, err := retry.Do(ctx, "connect to "+o.run.Endpoint, o.opts.RetryCount, o.opts.RetryDelay,
		func(ctx context.Context) (Session, error) {
			s, err := o.connect(ctx)
			o.metrics.IncConnectAttempt(err)
			return s, err
		})
	if err != nil {
		o.transition(Failed)
		o.writeMetrics()
		return nil, err
	}

	id := session.Identity()
	logger.Infof("Connected to %s (%s %s build %s) as %s", id.Endpoint, id.Product, id.Version, id.Build, id.Principal)

	o.transition(Collecting)
	inv, err := o.collect(ctx, session)
	if err != nil {
		logger.Errorf("Collection failed: %v", err)
		o.disconnect(session)
		o.transition(Failed)
		o.writeMetrics()
		return nil, err
	}

	o.transition(Aggregating)
	inv.Summary = inventory.Summarize(inv.VMs, inv.Hosts, inv.Datastores)

	o.transition(Exporting)
	faults := report.NewExporter(o.run.Dir, o.metrics).Export(inv)
	if len(faults) > 0 {
		logger.Errorf("%d report artifact(s) could not be written", len(faults))
	}

	o.disconnect(session)
	o.transition(Done)
	o.writeMetrics()

	logger.Infof("Inventory run %s completed: %d VMs, %d hosts, %d datastores",
		o.run.ID, len(inv.VMs), len(inv.Hosts), len(inv.Datastores))

	return &Result{Inventory: inv, ExportFaults: faults}, nil
}

func (o *Orchestrator) collect(ctx context.Context, session Session) (*inventory.Inventory, error) {
	logger := zap.S().Named("pipeline")
	opts := inventory.CollectOptions{
		BatchSize: o.opts.BatchSize,
		Workers:   o.opts.Workers,
		Metrics:   o.metrics,
	}

	inv := &inventory.Inventory{
		Identity:    session.Identity(),
		GeneratedAt: time.Now(),
	}

	vms, err := session.ListVMs(ctx)
	if err != nil {
		return nil, NewErrEnumeration(inventory.KindVM, err)
	}
	logger.Infof("Found %d virtual machines", len(vms))
	if inv.VMs, err = inventory.Collect(ctx, vms, session.VMSchema(), opts); err != nil {
		return nil, err
	}

	hosts, err := session.ListHosts(ctx)
	if err != nil {
		return nil, NewErrEnumeration(inventory.KindHost, err)
	}
	logger.Infof("Found %d hosts", len(hosts))
	if inv.Hosts, err = inventory.Collect(ctx, hosts, session.HostSchema(), opts); err != nil {
		return nil, err
	}

	datastores, err := session.ListDatastores(ctx)
	if err != nil {
		return nil, NewErrEnumeration(inventory.KindDatastore, err)
	}
	logger.Infof("Found %d datastores", len(datastores))
	if inv.Datastores, err = inventory.Collect(ctx, datastores, session.DatastoreSchema(), opts); err != nil {
		return nil, err
	}

	return inv, nil
}

// disconnect runs even when ctx is already cancelled.
func (o *Orchestrator) disconnect(session Session) {
	o.transition(Disconnecting)

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	if err := session.Disconnect(ctx); err != nil {
		zap.S().Named("pipeline").Warnf("Failed to disconnect from %s: %v", o.run.Endpoint, err)
		return
	}
	zap.S().Named("pipeline").Infof("Disconnected from %s", o.run.Endpoint)
}

func (o *Orchestrator) writeMetrics() {
	if err := o.metrics.WriteTextfile(o.run.PathFor(MetricsFile)); err != nil {
		zap.S().Named("pipeline").Warnf("Failed to write run metrics: %v", err)
	}
}

func (o *Orchestrator) transition(next State) {
	o.mu.Lock()
	prev := o.state
	now := time.Now()
	if prev != Idle && !prev.Terminal() {
		o.metrics.ObserveStage(prev.String(), now.Sub(o.stageStart))
	}
	o.state = next
	o.stageStart = now
	o.mu.Unlock()

	zap.S().Named("pipeline").Debugf("State %s -> %s", prev, next)
}

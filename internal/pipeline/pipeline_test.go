package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/vmware/govmomi/simulator"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kubev2v/inventory-report/internal/config"
	"github.com/kubev2v/inventory-report/internal/inventory"
	"github.com/kubev2v/inventory-report/internal/pipeline"
	"github.com/kubev2v/inventory-report/internal/report"
	"github.com/kubev2v/inventory-report/internal/retry"
	"github.com/kubev2v/inventory-report/internal/vsphere"
	"github.com/kubev2v/inventory-report/pkg/metrics"
)

type fakeSession struct {
	vms        []mo.VirtualMachine
	hosts      []mo.HostSystem
	datastores []mo.Datastore

	hostsErr      error
	disconnectErr error
	disconnected  int
}

func (f *fakeSession) Identity() inventory.Identity {
	return inventory.Identity{Endpoint: "vcenter.lab", Product: "VMware vCenter Server", Version: "8.0.2", Build: "22385739", Principal: "auditor"}
}

func (f *fakeSession) ListVMs(context.Context) ([]mo.VirtualMachine, error) {
	return f.vms, nil
}

func (f *fakeSession) ListHosts(context.Context) ([]mo.HostSystem, error) {
	return f.hosts, f.hostsErr
}

func (f *fakeSession) ListDatastores(context.Context) ([]mo.Datastore, error) {
	return f.datastores, nil
}

func (f *fakeSession) VMSchema() inventory.Schema[mo.VirtualMachine, inventory.VMRecord] {
	return inventory.Schema[mo.VirtualMachine, inventory.VMRecord]{
		Kind:  inventory.KindVM,
		Label: func(vm mo.VirtualMachine) string { return vm.Name },
		Fields: []inventory.Field[mo.VirtualMachine, inventory.VMRecord]{
			{
				Column: "Name",
				Get:    func(_ context.Context, vm mo.VirtualMachine) (any, error) { return vm.Name, nil },
				Ref:    func(r *inventory.VMRecord) *inventory.Value { return &r.Name },
			},
			{
				Column: "PowerState",
				Get: func(_ context.Context, vm mo.VirtualMachine) (any, error) {
					return string(inventory.ParsePowerState(string(vm.Runtime.PowerState))), nil
				},
				Ref: func(r *inventory.VMRecord) *inventory.Value { return &r.PowerState },
			},
			{
				Column: "Notes",
				Get: func(context.Context, mo.VirtualMachine) (any, error) {
					return nil, errors.New("annotation not readable")
				},
				Ref: func(r *inventory.VMRecord) *inventory.Value { return &r.Notes },
			},
		},
	}
}

func (f *fakeSession) HostSchema() inventory.Schema[mo.HostSystem, inventory.HostRecord] {
	return inventory.Schema[mo.HostSystem, inventory.HostRecord]{
		Kind: inventory.KindHost,
		Fields: []inventory.Field[mo.HostSystem, inventory.HostRecord]{
			{
				Column: "Name",
				Get:    func(_ context.Context, h mo.HostSystem) (any, error) { return h.Name, nil },
				Ref:    func(r *inventory.HostRecord) *inventory.Value { return &r.Name },
			},
			{
				Column: "ConnectionState",
				Get: func(_ context.Context, h mo.HostSystem) (any, error) {
					return string(h.Runtime.ConnectionState), nil
				},
				Ref: func(r *inventory.HostRecord) *inventory.Value { return &r.ConnectionState },
			},
		},
	}
}

func (f *fakeSession) DatastoreSchema() inventory.Schema[mo.Datastore, inventory.DatastoreRecord] {
	return inventory.Schema[mo.Datastore, inventory.DatastoreRecord]{
		Kind: inventory.KindDatastore,
		Fields: []inventory.Field[mo.Datastore, inventory.DatastoreRecord]{
			{
				Column: "Name",
				Get:    func(_ context.Context, ds mo.Datastore) (any, error) { return ds.Name, nil },
				Ref:    func(r *inventory.DatastoreRecord) *inventory.Value { return &r.Name },
			},
			{
				Column: "CapacityGB",
				Get:    func(_ context.Context, ds mo.Datastore) (any, error) { return float64(ds.Summary.Capacity), nil },
				Ref:    func(r *inventory.DatastoreRecord) *inventory.Value { return &r.CapacityGB },
			},
			{
				Column: "FreeGB",
				Get:    func(_ context.Context, ds mo.Datastore) (any, error) { return float64(ds.Summary.FreeSpace), nil },
				Ref:    func(r *inventory.DatastoreRecord) *inventory.Value { return &r.FreeGB },
			},
			{
				Column: "Accessible",
				Get:    func(_ context.Context, ds mo.Datastore) (any, error) { return ds.Summary.Accessible, nil },
				Ref:    func(r *inventory.DatastoreRecord) *inventory.Value { return &r.Accessible },
			},
		},
	}
}

func (f *fakeSession) Disconnect(context.Context) error {
	f.disconnected++
	return f.disconnectErr
}

func newFakeSession(numVMs int) *fakeSession {
	f := &fakeSession{}
	for i := 0; i < numVMs; i++ {
		vm := mo.VirtualMachine{}
		vm.Name = fmt.Sprintf("vm-%03d", i)
		vm.Runtime.PowerState = types.VirtualMachinePowerStatePoweredOn
		f.vms = append(f.vms, vm)
	}
	for i := 0; i < 2; i++ {
		h := mo.HostSystem{}
		h.Name = fmt.Sprintf("esx-%02d", i)
		h.Runtime.ConnectionState = types.HostSystemConnectionStateConnected
		f.hosts = append(f.hosts, h)
	}
	ds := mo.Datastore{}
	ds.Name = "datastore1"
	ds.Summary = types.DatastoreSummary{Capacity: 1000, FreeSpace: 250, Accessible: true}
	f.datastores = append(f.datastores, ds)
	return f
}

func connectTo(session pipeline.Session) pipeline.Connector {
	return func(context.Context) (pipeline.Session, error) {
		return session, nil
	}
}

func lineCount(path string) int {
	content, err := os.ReadFile(path)
	Expect(err).To(BeNil())
	return strings.Count(string(content), "\n")
}

var _ = Describe("Orchestrator", func() {
	var (
		logs    *observer.ObservedLogs
		restore func()
		run     *pipeline.RunContext
		opts    pipeline.Options
	)

	BeforeEach(func() {
		var core zapcore.Core
		core, logs = observer.New(zapcore.DebugLevel)
		restore = zap.ReplaceGlobals(zap.New(core))

		var err error
		run, err = pipeline.NewRunContext(GinkgoT().TempDir(), "vcenter.lab", time.Now())
		Expect(err).To(BeNil())

		opts = pipeline.Options{BatchSize: 200, Workers: 1, RetryCount: 3, RetryDelay: 0}
	})

	AfterEach(func() {
		restore()
	})

	Context("happy path", func() {
		It("collects 450 VMs in three batches and writes every artifact", func() {
			session := newFakeSession(450)
			o := pipeline.New(connectTo(session), run, opts, metrics.NewRecorder())

			res, err := o.Run(context.Background())
			Expect(err).To(BeNil())
			Expect(o.State()).To(Equal(pipeline.Done))
			Expect(session.disconnected).To(Equal(1))

			Expect(res.Inventory.VMs).To(HaveLen(450))
			Expect(res.Inventory.VMs[0].Name.String()).To(Equal("vm-000"))
			Expect(res.Inventory.VMs[449].Name.String()).To(Equal("vm-449"))
			Expect(res.Inventory.VMs[10].Notes.String()).To(Equal(inventory.Sentinel))
			Expect(res.ExportFaults).To(BeEmpty())

			Expect(logs.FilterMessageSnippet("Collecting Virtual Machines batch").Len()).To(Equal(3))
			Expect(lineCount(run.PathFor(report.VMsFile))).To(Equal(451))
			Expect(lineCount(run.PathFor(report.HostsFile))).To(Equal(3))

			for _, f := range []string{report.DatastoresFile, report.SummaryFile, report.HTMLFile, report.WorkbookFile, pipeline.MetricsFile} {
				Expect(run.PathFor(f)).To(BeAnExistingFile())
			}

			summary, err := os.ReadFile(run.PathFor(report.SummaryFile))
			Expect(err).To(BeNil())
			Expect(string(summary)).To(ContainSubstring("Total VMs,450\n"))
			Expect(string(summary)).To(ContainSubstring("Datastore Free (%),25\n"))
		})

		It("produces the same records with parallel workers", func() {
			session := newFakeSession(450)
			opts.BatchSize = 7
			opts.Workers = 4

			res, err := pipeline.New(connectTo(session), run, opts, nil).Run(context.Background())
			Expect(err).To(BeNil())
			for i, vm := range res.Inventory.VMs {
				Expect(vm.Name.String()).To(Equal(fmt.Sprintf("vm-%03d", i)))
			}
		})

		It("logs state transitions at debug level", func() {
			_, err := pipeline.New(connectTo(newFakeSession(1)), run, opts, nil).Run(context.Background())
			Expect(err).To(BeNil())

			transitions := logs.FilterLevelExact(zapcore.DebugLevel).FilterMessageSnippet("State ")
			Expect(transitions.Len()).To(Equal(6))
			Expect(transitions.All()[5].Message).To(Equal("State Disconnecting -> Done"))
		})

		It("writes 0 as the free percentage when there is no capacity", func() {
			session := newFakeSession(1)
			session.datastores[0].Summary = types.DatastoreSummary{Capacity: 0, FreeSpace: 0, Accessible: true}

			_, err := pipeline.New(connectTo(session), run, opts, nil).Run(context.Background())
			Expect(err).To(BeNil())

			summary, err := os.ReadFile(run.PathFor(report.SummaryFile))
			Expect(err).To(BeNil())
			Expect(string(summary)).To(ContainSubstring("Datastore Free (%),0\n"))
		})
	})

	Context("connecting", func() {
		It("retries a failing connection and succeeds on the third attempt", func() {
			session := newFakeSession(3)
			calls := 0
			connect := func(context.Context) (pipeline.Session, error) {
				calls++
				if calls <= 2 {
					return nil, errors.New("connection refused")
				}
				return session, nil
			}

			_, err := pipeline.New(connect, run, opts, nil).Run(context.Background())
			Expect(err).To(BeNil())
			Expect(calls).To(Equal(3))
			Expect(logs.FilterLevelExact(zapcore.WarnLevel).Len()).To(Equal(2))
			Expect(logs.FilterLevelExact(zapcore.ErrorLevel).Len()).To(Equal(0))
		})

		It("fails without output once retries are exhausted", func() {
			calls := 0
			connect := func(context.Context) (pipeline.Session, error) {
				calls++
				return nil, errors.New("no route to host")
			}

			o := pipeline.New(connect, run, opts, nil)
			res, err := o.Run(context.Background())
			Expect(res).To(BeNil())
			Expect(o.State()).To(Equal(pipeline.Failed))
			Expect(calls).To(Equal(opts.RetryCount + 1))

			var exhausted *retry.ErrExhausted
			Expect(errors.As(err, &exhausted)).To(BeTrue())
			Expect(exhausted.Attempts).To(Equal(4))

			Expect(run.PathFor(report.VMsFile)).NotTo(BeAnExistingFile())
			Expect(run.PathFor(report.HTMLFile)).NotTo(BeAnExistingFile())
		})
	})

	Context("failures after connecting", func() {
		It("fails on an enumeration fault and still disconnects", func() {
			session := newFakeSession(3)
			session.hostsErr = errors.New("session expired")

			o := pipeline.New(connectTo(session), run, opts, nil)
			_, err := o.Run(context.Background())

			var enumErr *pipeline.ErrEnumeration
			Expect(errors.As(err, &enumErr)).To(BeTrue())
			Expect(enumErr.Kind).To(Equal(inventory.KindHost))
			Expect(o.State()).To(Equal(pipeline.Failed))
			Expect(session.disconnected).To(Equal(1))
			Expect(run.PathFor(report.VMsFile)).NotTo(BeAnExistingFile())
		})

		It("keeps the run successful when disconnecting fails", func() {
			session := newFakeSession(3)
			session.disconnectErr = errors.New("logout failed")

			o := pipeline.New(connectTo(session), run, opts, nil)
			_, err := o.Run(context.Background())

			Expect(err).To(BeNil())
			Expect(o.State()).To(Equal(pipeline.Done))
			Expect(logs.FilterLevelExact(zapcore.WarnLevel).FilterMessageSnippet("Failed to disconnect").Len()).To(Equal(1))
		})

		It("reports export faults without failing the run", func() {
			Expect(os.Mkdir(run.PathFor(report.HTMLFile), 0o755)).To(Succeed())
			session := newFakeSession(3)

			o := pipeline.New(connectTo(session), run, opts, nil)
			res, err := o.Run(context.Background())

			Expect(err).To(BeNil())
			Expect(o.State()).To(Equal(pipeline.Done))
			Expect(res.ExportFaults).To(HaveLen(1))
			Expect(session.disconnected).To(Equal(1))
			Expect(run.PathFor(report.VMsFile)).To(BeAnExistingFile())
		})
	})

	Context("against a simulated vCenter", func() {
		It("collects the simulator inventory", func() {
			model := simulator.VPX()
			defer model.Remove()
			Expect(model.Create()).To(Succeed())

			server := model.Service.NewServer()
			defer server.Close()

			password, _ := simulator.DefaultLogin.Password()
			creds := config.Credentials{Username: simulator.DefaultLogin.Username(), Password: password}
			connect := func(ctx context.Context) (pipeline.Session, error) {
				s, err := vsphere.Connect(ctx, server.URL.String(), creds, true)
				if err != nil {
					return nil, err
				}
				return s, nil
			}

			o := pipeline.New(connect, run, opts, metrics.NewRecorder())
			res, err := o.Run(context.Background())
			Expect(err).To(BeNil())
			Expect(o.State()).To(Equal(pipeline.Done))

			Expect(res.Inventory.VMs).To(HaveLen(4))
			Expect(res.Inventory.Summary.TotalHosts).To(Equal(4))
			Expect(lineCount(run.PathFor(report.VMsFile))).To(Equal(5))

			var out bytes.Buffer
			Expect(pipeline.PrintSummary(&out, run, res)).To(Succeed())
			Expect(out.String()).To(ContainSubstring("Total VMs"))
			Expect(out.String()).To(ContainSubstring(run.Dir))
		})
	})
})

var _ = Describe("RunContext", func() {
	It("creates a stamped run folder", func() {
		root := GinkgoT().TempDir()
		started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		run, err := pipeline.NewRunContext(root, "vcenter.lab", started)
		Expect(err).To(BeNil())

		Expect(run.Stamp).To(Equal("2026-01-02_03-04-05"))
		Expect(run.Dir).To(Equal(filepath.Join(root, "2026-01-02_03-04-05")))
		Expect(run.Dir).To(BeADirectory())
		Expect(run.LogPath).To(Equal(filepath.Join(run.Dir, "inventory_2026-01-02_03-04-05.log")))
	})
})

var _ = Describe("State", func() {
	DescribeTable("names",
		func(s pipeline.State, name string, terminal bool) {
			Expect(s.String()).To(Equal(name))
			Expect(s.Terminal()).To(Equal(terminal))
		},
		Entry("idle", pipeline.Idle, "Idle", false),
		Entry("collecting", pipeline.Collecting, "Collecting", false),
		Entry("done", pipeline.Done, "Done", true),
		Entry("failed", pipeline.Failed, "Failed", true),
	)
})

package vsphere

import (
	"context"
	"slices"
	"strings"

	"github.com/kubev2v/inventory-report/internal/inventory"
	"github.com/pkg/errors"
	"github.com/thoas/go-funk"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"
)

const (
	bytesPerGB = 1024 * 1024 * 1024
	// maxFolderDepth guards against parent cycles in broken inventories.
	maxFolderDepth = 32
)

type vmField = inventory.Field[mo.VirtualMachine, inventory.VMRecord]

// VMSchema extracts a VMRecord. Host, Cluster, Datastores and Folder
// resolve references through the session and issue remote calls on a cache
// miss.
func (s *Session) VMSchema() inventory.Schema[mo.VirtualMachine, inventory.VMRecord] {
	return inventory.Schema[mo.VirtualMachine, inventory.VMRecord]{
		Kind:  inventory.KindVM,
		Label: func(vm mo.VirtualMachine) string { return vm.Name },
		Fields: []vmField{
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
				Column: "NumCPU",
				Get:    func(_ context.Context, vm mo.VirtualMachine) (any, error) { return vm.Config.Hardware.NumCPU, nil },
				Ref:    func(r *inventory.VMRecord) *inventory.Value { return &r.NumCPU },
			},
			{
				Column: "MemoryGB",
				Get: func(_ context.Context, vm mo.VirtualMachine) (any, error) {
					return float64(vm.Config.Hardware.MemoryMB) / 1024, nil
				},
				Ref: func(r *inventory.VMRecord) *inventory.Value { return &r.MemoryGB },
			},
			{
				Column: "ProvisionedGB",
				Get: func(_ context.Context, vm mo.VirtualMachine) (any, error) {
					st := vm.Summary.Storage
					if st == nil {
						return nil, errors.New("storage summary not reported")
					}
					return float64(st.Committed+st.Uncommitted) / bytesPerGB, nil
				},
				Ref: func(r *inventory.VMRecord) *inventory.Value { return &r.ProvisionedGB },
			},
			{
				Column: "UsedGB",
				Get: func(_ context.Context, vm mo.VirtualMachine) (any, error) {
					st := vm.Summary.Storage
					if st == nil {
						return nil, errors.New("storage summary not reported")
					}
					return float64(st.Committed) / bytesPerGB, nil
				},
				Ref: func(r *inventory.VMRecord) *inventory.Value { return &r.UsedGB },
			},
			{
				Column: "GuestOS",
				Get:    guestOS,
				Ref:    func(r *inventory.VMRecord) *inventory.Value { return &r.GuestOS },
			},
			{
				Column: "Host",
				Get: func(ctx context.Context, vm mo.VirtualMachine) (any, error) {
					return s.name(ctx, vm.Runtime.Host)
				},
				Ref: func(r *inventory.VMRecord) *inventory.Value { return &r.Host },
			},
			{
				Column: "Cluster",
				Get: func(ctx context.Context, vm mo.VirtualMachine) (any, error) {
					return s.cluster(ctx, vm.Runtime.Host)
				},
				Ref: func(r *inventory.VMRecord) *inventory.Value { return &r.Cluster },
			},
			{
				Column: "Datastores",
				Get: func(ctx context.Context, vm mo.VirtualMachine) (any, error) {
					names := make([]string, 0, len(vm.Datastore))
					for _, ref := range vm.Datastore {
						name, err := s.name(ctx, &ref)
						if err != nil {
							return nil, err
						}
						names = append(names, name)
					}
					return funk.UniqString(names), nil
				},
				Ref: func(r *inventory.VMRecord) *inventory.Value { return &r.Datastores },
			},
			{
				Column: "ToolsStatus",
				Get:    toolsStatus,
				Ref:    func(r *inventory.VMRecord) *inventory.Value { return &r.ToolsStatus },
			},
			{
				Column: "IPAddresses",
				Get:    ipAddresses,
				Ref:    func(r *inventory.VMRecord) *inventory.Value { return &r.IPAddresses },
			},
			{
				Column: "CreateDate",
				Get:    func(_ context.Context, vm mo.VirtualMachine) (any, error) { return vm.Config.CreateDate, nil },
				Ref:    func(r *inventory.VMRecord) *inventory.Value { return &r.CreateDate },
			},
			{
				Column: "HardwareVersion",
				Get:    func(_ context.Context, vm mo.VirtualMachine) (any, error) { return vm.Config.Version, nil },
				Ref:    func(r *inventory.VMRecord) *inventory.Value { return &r.HardwareVersion },
			},
			{
				Column: "Folder",
				Get: func(ctx context.Context, vm mo.VirtualMachine) (any, error) {
					return s.folderPath(ctx, vm.Parent)
				},
				Ref: func(r *inventory.VMRecord) *inventory.Value { return &r.Folder },
			},
			{
				Column: "Notes",
				Get:    func(_ context.Context, vm mo.VirtualMachine) (any, error) { return vm.Config.Annotation, nil },
				Ref:    func(r *inventory.VMRecord) *inventory.Value { return &r.Notes },
			},
		},
	}
}

func guestOS(_ context.Context, vm mo.VirtualMachine) (any, error) {
	if vm.Config != nil && vm.Config.GuestFullName != "" {
		return vm.Config.GuestFullName, nil
	}
	if vm.Guest != nil && vm.Guest.GuestFullName != "" {
		return vm.Guest.GuestFullName, nil
	}
	return nil, errors.New("guest OS not reported")
}

func toolsStatus(_ context.Context, vm mo.VirtualMachine) (any, error) {
	if vm.Guest == nil {
		return nil, errors.New("guest info not reported")
	}
	if vm.Guest.ToolsStatus != "" {
		return string(vm.Guest.ToolsStatus), nil
	}
	if vm.Guest.ToolsRunningStatus != "" {
		return vm.Guest.ToolsRunningStatus, nil
	}
	return nil, errors.New("tools status not reported")
}

func ipAddresses(_ context.Context, vm mo.VirtualMachine) (any, error) {
	if vm.Guest == nil {
		return nil, errors.New("guest info not reported")
	}
	var ips []string
	for _, nic := range vm.Guest.Net {
		ips = append(ips, nic.IpAddress...)
	}
	if len(ips) == 0 && vm.Guest.IpAddress != "" {
		ips = append(ips, vm.Guest.IpAddress)
	}
	if len(ips) == 0 {
		return nil, errors.New("guest IP address not reported")
	}
	return funk.UniqString(ips), nil
}

// cluster returns the cluster owning host. Standalone hosts have no cluster
// and yield the sentinel.
func (s *Session) cluster(ctx context.Context, host *types.ManagedObjectReference) (any, error) {
	if host == nil {
		return nil, errors.New("VM is not placed on a host")
	}
	h, err := s.entity(ctx, *host)
	if err != nil {
		return nil, err
	}
	if h.Parent == nil || h.Parent.Type != "ClusterComputeResource" {
		return nil, nil
	}
	return s.name(ctx, h.Parent)
}

// folderPath walks the parents of a VM up to its datacenter, e.g.
// "/DC0/vm/prod/web".
func (s *Session) folderPath(ctx context.Context, parent *types.ManagedObjectReference) (string, error) {
	var names []string
	for ref := parent; ref != nil && len(names) < maxFolderDepth; {
		e, err := s.entity(ctx, *ref)
		if err != nil {
			return "", err
		}
		names = append(names, e.Name)
		if ref.Type == "Datacenter" {
			break
		}
		ref = e.Parent
	}
	if len(names) == 0 {
		return "", errors.New("VM has no parent folder")
	}
	slices.Reverse(names)
	return "/" + strings.Join(names, "/"), nil
}

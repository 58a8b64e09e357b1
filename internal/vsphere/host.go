package vsphere

import (
	"context"

	"github.com/kubev2v/inventory-report/internal/inventory"
	"github.com/pkg/errors"
	"github.com/vmware/govmomi/vim25/mo"
)

type hostField = inventory.Field[mo.HostSystem, inventory.HostRecord]

// HostSchema extracts a HostRecord. LicenseKey queries the license
// assignment manager for every host.
func (s *Session) HostSchema() inventory.Schema[mo.HostSystem, inventory.HostRecord] {
	return inventory.Schema[mo.HostSystem, inventory.HostRecord]{
		Kind:  inventory.KindHost,
		Label: func(h mo.HostSystem) string { return h.Name },
		Fields: []hostField{
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
			{
				Column: "Version",
				Get:    func(_ context.Context, h mo.HostSystem) (any, error) { return h.Config.Product.Version, nil },
				Ref:    func(r *inventory.HostRecord) *inventory.Value { return &r.Version },
			},
			{
				Column: "Build",
				Get:    func(_ context.Context, h mo.HostSystem) (any, error) { return h.Config.Product.Build, nil },
				Ref:    func(r *inventory.HostRecord) *inventory.Value { return &r.Build },
			},
			{
				Column: "CPUModel",
				Get:    func(_ context.Context, h mo.HostSystem) (any, error) { return h.Summary.Hardware.CpuModel, nil },
				Ref:    func(r *inventory.HostRecord) *inventory.Value { return &r.CPUModel },
			},
			{
				Column: "CPUCores",
				Get:    func(_ context.Context, h mo.HostSystem) (any, error) { return h.Summary.Hardware.NumCpuCores, nil },
				Ref:    func(r *inventory.HostRecord) *inventory.Value { return &r.CPUCores },
			},
			{
				Column: "MemoryGB",
				Get: func(_ context.Context, h mo.HostSystem) (any, error) {
					return float64(h.Summary.Hardware.MemorySize) / bytesPerGB, nil
				},
				Ref: func(r *inventory.HostRecord) *inventory.Value { return &r.MemoryGB },
			},
			{
				Column: "PhysicalNICs",
				Get:    func(_ context.Context, h mo.HostSystem) (any, error) { return len(h.Config.Network.Pnic), nil },
				Ref:    func(r *inventory.HostRecord) *inventory.Value { return &r.PhysicalNICs },
			},
			{
				Column: "VirtualSwitches",
				Get:    func(_ context.Context, h mo.HostSystem) (any, error) { return len(h.Config.Network.Vswitch), nil },
				Ref:    func(r *inventory.HostRecord) *inventory.Value { return &r.VirtualSwitches },
			},
			{
				Column: "VMotionEnabled",
				Get:    func(_ context.Context, h mo.HostSystem) (any, error) { return h.Summary.Config.VmotionEnabled, nil },
				Ref:    func(r *inventory.HostRecord) *inventory.Value { return &r.VMotionEnabled },
			},
			{
				Column: "ManagementIP",
				Get:    managementIP,
				Ref:    func(r *inventory.HostRecord) *inventory.Value { return &r.ManagementIP },
			},
			{
				Column: "Manufacturer",
				Get:    func(_ context.Context, h mo.HostSystem) (any, error) { return h.Summary.Hardware.Vendor, nil },
				Ref:    func(r *inventory.HostRecord) *inventory.Value { return &r.Manufacturer },
			},
			{
				Column: "Model",
				Get:    func(_ context.Context, h mo.HostSystem) (any, error) { return h.Summary.Hardware.Model, nil },
				Ref:    func(r *inventory.HostRecord) *inventory.Value { return &r.Model },
			},
			{
				Column: "LicenseKey",
				Get: func(ctx context.Context, h mo.HostSystem) (any, error) {
					return s.licenseKey(ctx, h.Reference())
				},
				Ref: func(r *inventory.HostRecord) *inventory.Value { return &r.LicenseKey },
			},
		},
	}
}

// managementIP prefers vmk0 and falls back to the first VMkernel adapter
// with an address.
func managementIP(_ context.Context, h mo.HostSystem) (any, error) {
	var fallback string
	for _, vnic := range h.Config.Network.Vnic {
		if vnic.Spec.Ip == nil || vnic.Spec.Ip.IpAddress == "" {
			continue
		}
		if vnic.Device == "vmk0" {
			return vnic.Spec.Ip.IpAddress, nil
		}
		if fallback == "" {
			fallback = vnic.Spec.Ip.IpAddress
		}
	}
	if fallback == "" {
		return nil, errors.New("no VMkernel adapter with an IP address")
	}
	return fallback, nil
}

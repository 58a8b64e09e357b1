package vsphere

import (
	"context"

	"github.com/kubev2v/inventory-report/internal/inventory"
	"github.com/vmware/govmomi/vim25/mo"
)

type datastoreField = inventory.Field[mo.Datastore, inventory.DatastoreRecord]

func (s *Session) DatastoreSchema() inventory.Schema[mo.Datastore, inventory.DatastoreRecord] {
	return inventory.Schema[mo.Datastore, inventory.DatastoreRecord]{
		Kind:  inventory.KindDatastore,
		Label: func(ds mo.Datastore) string { return ds.Name },
		Fields: []datastoreField{
			{
				Column: "Name",
				Get:    func(_ context.Context, ds mo.Datastore) (any, error) { return ds.Name, nil },
				Ref:    func(r *inventory.DatastoreRecord) *inventory.Value { return &r.Name },
			},
			{
				Column: "Type",
				Get:    func(_ context.Context, ds mo.Datastore) (any, error) { return ds.Summary.Type, nil },
				Ref:    func(r *inventory.DatastoreRecord) *inventory.Value { return &r.Type },
			},
			{
				Column: "CapacityGB",
				Get: func(_ context.Context, ds mo.Datastore) (any, error) {
					return float64(ds.Summary.Capacity) / bytesPerGB, nil
				},
				Ref: func(r *inventory.DatastoreRecord) *inventory.Value { return &r.CapacityGB },
			},
			{
				Column: "FreeGB",
				Get: func(_ context.Context, ds mo.Datastore) (any, error) {
					return float64(ds.Summary.FreeSpace) / bytesPerGB, nil
				},
				Ref: func(r *inventory.DatastoreRecord) *inventory.Value { return &r.FreeGB },
			},
			{
				Column: "UsedGB",
				Get: func(_ context.Context, ds mo.Datastore) (any, error) {
					return float64(ds.Summary.Capacity-ds.Summary.FreeSpace) / bytesPerGB, nil
				},
				Ref: func(r *inventory.DatastoreRecord) *inventory.Value { return &r.UsedGB },
			},
			{
				Column: "PercentFree",
				Get: func(_ context.Context, ds mo.Datastore) (any, error) {
					return inventory.Percent(float64(ds.Summary.FreeSpace), float64(ds.Summary.Capacity)), nil
				},
				Ref: func(r *inventory.DatastoreRecord) *inventory.Value { return &r.PercentFree },
			},
			{
				Column: "Accessible",
				Get:    func(_ context.Context, ds mo.Datastore) (any, error) { return ds.Summary.Accessible, nil },
				Ref:    func(r *inventory.DatastoreRecord) *inventory.Value { return &r.Accessible },
			},
			{
				Column: "MountedHosts",
				Get:    func(_ context.Context, ds mo.Datastore) (any, error) { return mountedHosts(ds), nil },
				Ref:    func(r *inventory.DatastoreRecord) *inventory.Value { return &r.MountedHosts },
			},
		},
	}
}

// mountedHosts counts hosts that have the volume mounted. A missing mount
// flag counts as mounted.
func mountedHosts(ds mo.Datastore) int {
	n := 0
	for _, h := range ds.Host {
		if h.MountInfo.Mounted == nil || *h.MountInfo.Mounted {
			n++
		}
	}
	return n
}

package inventory

import (
	"strings"
	"time"
)

type Kind string

const (
	KindVM        Kind = "Virtual Machines"
	KindHost      Kind = "Hosts"
	KindDatastore Kind = "Datastores"
)

type PowerState string

const (
	PoweredOn    PowerState = "PoweredOn"
	PoweredOff   PowerState = "PoweredOff"
	Suspended    PowerState = "Suspended"
	PowerUnknown PowerState = "Unknown"
)

// ParsePowerState maps the vSphere spelling (poweredOn, poweredOff,
// suspended) onto PowerState.
func ParsePowerState(s string) PowerState {
	switch strings.ToLower(s) {
	case "poweredon":
		return PoweredOn
	case "poweredoff":
		return PoweredOff
	case "suspended":
		return Suspended
	}
	return PowerUnknown
}

// Identity describes the endpoint an inventory was collected from.
type Identity struct {
	Endpoint  string
	Product   string
	Version   string
	Build     string
	Principal string
}

var VMColumns = []string{
	"Name", "PowerState", "NumCPU", "MemoryGB", "ProvisionedGB", "UsedGB",
	"GuestOS", "Host", "Cluster", "Datastores", "ToolsStatus", "IPAddresses",
	"CreateDate", "HardwareVersion", "Folder", "Notes",
}

type VMRecord struct {
	Name            Value
	PowerState      Value
	NumCPU          Value
	MemoryGB        Value
	ProvisionedGB   Value
	UsedGB          Value
	GuestOS         Value
	Host            Value
	Cluster         Value
	Datastores      Value
	ToolsStatus     Value
	IPAddresses     Value
	CreateDate      Value
	HardwareVersion Value
	Folder          Value
	Notes           Value
}

func (r VMRecord) Values() []Value {
	return []Value{
		r.Name, r.PowerState, r.NumCPU, r.MemoryGB, r.ProvisionedGB, r.UsedGB,
		r.GuestOS, r.Host, r.Cluster, r.Datastores, r.ToolsStatus, r.IPAddresses,
		r.CreateDate, r.HardwareVersion, r.Folder, r.Notes,
	}
}

var HostColumns = []string{
	"Name", "ConnectionState", "Version", "Build", "CPUModel", "CPUCores",
	"MemoryGB", "PhysicalNICs", "VirtualSwitches", "VMotionEnabled",
	"ManagementIP", "Manufacturer", "Model", "LicenseKey",
}

type HostRecord struct {
	Name            Value
	ConnectionState Value
	Version         Value
	Build           Value
	CPUModel        Value
	CPUCores        Value
	MemoryGB        Value
	PhysicalNICs    Value
	VirtualSwitches Value
	VMotionEnabled  Value
	ManagementIP    Value
	Manufacturer    Value
	Model           Value
	LicenseKey      Value
}

func (r HostRecord) Values() []Value {
	return []Value{
		r.Name, r.ConnectionState, r.Version, r.Build, r.CPUModel, r.CPUCores,
		r.MemoryGB, r.PhysicalNICs, r.VirtualSwitches, r.VMotionEnabled,
		r.ManagementIP, r.Manufacturer, r.Model, r.LicenseKey,
	}
}

var DatastoreColumns = []string{
	"Name", "Type", "CapacityGB", "FreeGB", "UsedGB", "PercentFree",
	"Accessible", "MountedHosts",
}

type DatastoreRecord struct {
	Name         Value
	Type         Value
	CapacityGB   Value
	FreeGB       Value
	UsedGB       Value
	PercentFree  Value
	Accessible   Value
	MountedHosts Value
}

func (r DatastoreRecord) Values() []Value {
	return []Value{
		r.Name, r.Type, r.CapacityGB, r.FreeGB, r.UsedGB, r.PercentFree,
		r.Accessible, r.MountedHosts,
	}
}

// Row is implemented by every record type.
type Row interface {
	Values() []Value
}

// Table is the format-neutral view of a record set handed to exporters.
type Table struct {
	Kind    Kind
	Columns []string
	Rows    [][]Value
}

func NewTable[R Row](kind Kind, columns []string, records []R) Table {
	rows := make([][]Value, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Values())
	}
	return Table{Kind: kind, Columns: append([]string{}, columns...), Rows: rows}
}

// Inventory is everything a single run produces.
type Inventory struct {
	Identity    Identity
	GeneratedAt time.Time
	VMs         []VMRecord
	Hosts       []HostRecord
	Datastores  []DatastoreRecord
	Summary     SummaryStats
}

func (i *Inventory) Tables() []Table {
	return []Table{
		NewTable(KindVM, VMColumns, i.VMs),
		NewTable(KindHost, HostColumns, i.Hosts),
		NewTable(KindDatastore, DatastoreColumns, i.Datastores),
	}
}

package inventory

import (
	"strconv"
	"strings"
)

// SummaryStats is derived from the record sets of a run.
type SummaryStats struct {
	TotalVMs             int
	PoweredOnVMs         int
	TotalHosts           int
	ConnectedHosts       int
	TotalDatastores      int
	AccessibleDatastores int

	TotalVMMemoryGB          float64
	TotalHostMemoryGB        float64
	TotalDatastoreCapacityGB float64
	TotalDatastoreFreeGB     float64
	// DatastoreFreePercent is 0 when the total capacity is 0.
	DatastoreFreePercent float64
}

// Metric is one Name/Value row of the summary.
type Metric struct {
	Name  string
	Value string
}

// Metrics lists the summary fields in their fixed report order.
func (s SummaryStats) Metrics() []Metric {
	return []Metric{
		{"Total VMs", strconv.Itoa(s.TotalVMs)},
		{"Powered On VMs", strconv.Itoa(s.PoweredOnVMs)},
		{"Total Hosts", strconv.Itoa(s.TotalHosts)},
		{"Connected Hosts", strconv.Itoa(s.ConnectedHosts)},
		{"Total Datastores", strconv.Itoa(s.TotalDatastores)},
		{"Accessible Datastores", strconv.Itoa(s.AccessibleDatastores)},
		{"Total VM Memory (GB)", FormatFloat(s.TotalVMMemoryGB)},
		{"Total Host Memory (GB)", FormatFloat(s.TotalHostMemoryGB)},
		{"Total Datastore Capacity (GB)", FormatFloat(s.TotalDatastoreCapacityGB)},
		{"Total Datastore Free (GB)", FormatFloat(s.TotalDatastoreFreeGB)},
		{"Datastore Free (%)", FormatFloat(s.DatastoreFreePercent)},
	}
}

// Summarize reduces the record sets. Sentinel cells add nothing to totals.
func Summarize(vms []VMRecord, hosts []HostRecord, datastores []DatastoreRecord) SummaryStats {
	s := SummaryStats{
		TotalVMs:        len(vms),
		TotalHosts:      len(hosts),
		TotalDatastores: len(datastores),
	}

	for _, vm := range vms {
		if ParsePowerState(vm.PowerState.String()) == PoweredOn {
			s.PoweredOnVMs++
		}
		s.TotalVMMemoryGB += number(vm.MemoryGB)
	}

	for _, h := range hosts {
		if strings.EqualFold(h.ConnectionState.String(), "connected") {
			s.ConnectedHosts++
		}
		s.TotalHostMemoryGB += number(h.MemoryGB)
	}

	for _, ds := range datastores {
		if ok, _ := ds.Accessible.Bool(); ok {
			s.AccessibleDatastores++
		}
		s.TotalDatastoreCapacityGB += number(ds.CapacityGB)
		s.TotalDatastoreFreeGB += number(ds.FreeGB)
	}

	s.TotalVMMemoryGB = Round2(s.TotalVMMemoryGB)
	s.TotalHostMemoryGB = Round2(s.TotalHostMemoryGB)
	s.TotalDatastoreCapacityGB = Round2(s.TotalDatastoreCapacityGB)
	s.TotalDatastoreFreeGB = Round2(s.TotalDatastoreFreeGB)
	s.DatastoreFreePercent = Percent(s.TotalDatastoreFreeGB, s.TotalDatastoreCapacityGB)

	return s
}

// Percent returns part/total*100 rounded to two decimals, or 0 for a zero
// total.
func Percent(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(part / total * 100)
}

func number(v Value) float64 {
	f, _ := v.Float()
	return f
}

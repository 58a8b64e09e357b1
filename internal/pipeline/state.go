package pipeline

type State int

const (
	Idle State = iota
	Connecting
	Collecting
	Aggregating
	Exporting
	Disconnecting
	Done
	Failed
)

var stateNames = map[State]string{
	Idle:          "Idle",
	Connecting:    "Connecting",
	Collecting:    "Collecting",
	Aggregating:   "Aggregating",
	Exporting:     "Exporting",
	Disconnecting: "Disconnecting",
	Done:          "Done",
	Failed:        "Failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

func (s State) Terminal() bool {
	return s == Done || s == Failed
}

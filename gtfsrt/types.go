package gtfsrt

// ActivePeriod is one active-time window of an alert. A zero Start or End
// means that side of the window is open.
type ActivePeriod struct {
	Start int64
	End   int64
}

// Alert is a simplified representation of a GTFS-RT Alert
type Alert struct {
	ID            string
	Header        string
	Description   string
	RouteIDs      []string
	ActivePeriods []ActivePeriod
}

// LineSample is everything decoded from the upstream feed for one tracked
// line during one refresh cycle. Never mutated after construction.
type LineSample struct {
	LineID          string
	Status          string
	Alerts          []Alert
	ActiveTripCount int
}

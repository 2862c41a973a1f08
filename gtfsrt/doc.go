// Package gtfsrt fetches GTFS-Realtime protobuf feeds and reduces them to
// per-line samples: the alerts naming a line plus a count of its active
// trips. That is all the relay needs; individual trip updates are counted,
// not parsed.
package gtfsrt

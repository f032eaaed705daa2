package event_bus

const (
	HourEntryCreated EventType = "hours.entry.created"
	HourEntryUpdated EventType = "hours.entry.updated"
	HourEntryDeleted EventType = "hours.entry.deleted"
)

// HourEntryChanged is published after an hour entry is created, updated or deleted.
// ProjectIds lists every project whose totals may have changed: the entry's project before
// and after the change, without zeros or duplicates.
type HourEntryChanged struct {
	EntryId    int
	UserId     int
	ProjectIds []int
}

// AffectedProjects builds the ProjectIds list from the previous and current project of an entry.
func AffectedProjects(previous, current int) []int {
	var ids []int
	if previous != 0 {
		ids = append(ids, previous)
	}
	if current != 0 && current != previous {
		ids = append(ids, current)
	}
	return ids
}

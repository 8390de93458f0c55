package domain

// Lookup is a row of a read-only reference table projected to id and title.
type Lookup struct {
	ID    int
	Title string
}

// LookupTable names a reference table.
type LookupTable string

const (
	LookupPriorities            LookupTable = "priorities"
	LookupStatuses              LookupTable = "statuses"
	LookupTicketTypes           LookupTable = "ticket_types"
	LookupInstalledEnvironments LookupTable = "installed_environments"
	LookupLogTypes              LookupTable = "log_types"
)

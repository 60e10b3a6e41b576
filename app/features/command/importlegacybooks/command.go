package importlegacybooks

import "github.com/AntonStoeckl/library-circulation-go/circulation"

const commandType = "ImportLegacyBooks"

// Command represents the intent to reconcile a batch of legacy records into the catalog.
type Command struct {
	Records []circulation.LegacyRecord
}

func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(records []circulation.LegacyRecord) Command {
	return Command{Records: records}
}

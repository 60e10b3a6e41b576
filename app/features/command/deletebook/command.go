package deletebook

import "github.com/google/uuid"

const commandType = "DeleteBook"

// Command represents the intent to remove a book and its loan history.
type Command struct {
	BookID uuid.UUID
}

func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID uuid.UUID) Command {
	return Command{BookID: bookID}
}

package changecopiestotal

import "github.com/google/uuid"

const commandType = "ChangeCopiesTotal"

// Command represents the intent to set the number of copies owned of a book.
type Command struct {
	BookID      uuid.UUID
	CopiesTotal int
}

func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID uuid.UUID, copiesTotal int) Command {
	return Command{BookID: bookID, CopiesTotal: copiesTotal}
}

package returnbookcopy

import (
	"time"

	"github.com/google/uuid"
)

const commandType = "ReturnBookCopy"

// Command represents the intent to return the copy lent out by LoanID.
type Command struct {
	LoanID      uuid.UUID
	RequestedAt time.Time
}

func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, requestedAt time.Time) Command {
	return Command{LoanID: loanID, RequestedAt: requestedAt}
}

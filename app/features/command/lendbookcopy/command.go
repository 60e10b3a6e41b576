package lendbookcopy

import (
	"time"

	"github.com/google/uuid"
)

const commandType = "LendBookCopy"

// Command represents the intent to lend a copy of BookID to Borrower until DueDate (YYYY-MM-DD).
type Command struct {
	LoanID      uuid.UUID
	BookID      uuid.UUID
	Borrower    string
	DueDate     string
	RequestedAt time.Time
}

func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID, bookID uuid.UUID, borrower string, dueDate string, requestedAt time.Time) Command {
	return Command{
		LoanID:      loanID,
		BookID:      bookID,
		Borrower:    borrower,
		DueDate:     dueDate,
		RequestedAt: requestedAt,
	}
}

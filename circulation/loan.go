package circulation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// dueDateLayout is the calendar-date layout loans use for their due date.
const dueDateLayout = "2006-01-02"

// Loan records the lending of one copy of a book to a borrower.
// A loan is active while ReturnedAt is nil.
type Loan struct {
	ID         uuid.UUID  `json:"id"`
	BookID     uuid.UUID  `json:"book_id"`
	Borrower   string     `json:"borrower"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnedAt *time.Time `json:"returned_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsActive reports whether the loan has not been returned yet.
func (l Loan) IsActive() bool {
	return l.ReturnedAt == nil
}

// IsOverdue reports whether the loan is active and its due date lies before today.
func (l Loan) IsOverdue(today time.Time) bool {
	return l.IsActive() && l.DueDate.Before(CalendarDate(today))
}

// LoanView is a loan joined with the catalog data of its book, as shown in loan listings.
type LoanView struct {
	Loan
	Title    string  `json:"title"`
	Author   *string `json:"author"`
	Category *string `json:"category"`
}

// NewLoan is a validated loan request, ready to be recorded.
type NewLoan struct {
	ID         uuid.UUID
	BookID     uuid.UUID
	Borrower   string
	BorrowDate time.Time
	DueDate    time.Time
}

// BuildNewLoan validates a loan request.
// The borrower is trimmed and must not be blank. The due date must be a calendar date
// (YYYY-MM-DD, or an RFC 3339 timestamp whose date part is used) not earlier than the
// calendar date of now in now's location.
func BuildNewLoan(id uuid.UUID, bookID uuid.UUID, borrower string, dueDate string, now time.Time) (NewLoan, error) {
	if id == uuid.Nil || bookID == uuid.Nil {
		return NewLoan{}, ErrInvalidID
	}

	borrower = strings.TrimSpace(borrower)
	if borrower == "" {
		return NewLoan{}, ErrBorrowerRequired
	}

	due, err := ParseDueDate(dueDate)
	if err != nil {
		return NewLoan{}, err
	}

	if due.Before(CalendarDate(now)) {
		return NewLoan{}, ErrDueDateInPast
	}

	return NewLoan{
		ID:         id,
		BookID:     bookID,
		Borrower:   borrower,
		BorrowDate: now,
		DueDate:    due,
	}, nil
}

// ParseDueDate parses a due date into a calendar date at midnight UTC.
func ParseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrDueDateRequired
	}

	if date, err := time.Parse(dueDateLayout, raw); err == nil {
		return date, nil
	}

	if stamp, err := time.Parse(time.RFC3339, raw); err == nil {
		return time.Date(stamp.Year(), stamp.Month(), stamp.Day(), 0, 0, 0, 0, time.UTC), nil
	}

	return time.Time{}, ErrDueDateMalformed
}

// CalendarDate strips the clock from t, keeping the date as seen in t's location, as midnight UTC.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dueDateLayout)
}

// LoanStatus selects which loans a listing returns.
type LoanStatus string

const (
	// LoanStatusActive selects loans not returned yet. This is the default.
	LoanStatusActive LoanStatus = "active"

	// LoanStatusOverdue selects active loans whose due date lies before today.
	LoanStatusOverdue LoanStatus = "overdue"

	// LoanStatusReturned selects returned loans.
	LoanStatusReturned LoanStatus = "returned"

	// LoanStatusAll selects every loan.
	LoanStatusAll LoanStatus = "all"
)

// ParseLoanStatus maps a filter value to a LoanStatus. Empty input means LoanStatusActive.
func ParseLoanStatus(raw string) (LoanStatus, error) {
	switch status := LoanStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case "":
		return LoanStatusActive, nil
	case LoanStatusActive, LoanStatusOverdue, LoanStatusReturned, LoanStatusAll:
		return status, nil
	default:
		return "", ErrInvalidLoanStatus
	}
}

// LoanSearch filters the loan listing.
// Query matches title, author, category and borrower case-insensitively.
// Today decides which active loans count as overdue.
type LoanSearch struct {
	Status LoanStatus
	Query  string
	Today  time.Time
}

package circulation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func Test_BuildNewLoan(t *testing.T) {
	loanID := uuid.MustParse("0190a3c2-8f1e-7c3a-9b2d-5e6f7a8b9c01")
	bookID := uuid.MustParse("0190a3c2-8f1e-7c3a-9b2d-5e6f7a8b9c02")
	now := time.Date(2026, 10, 17, 15, 30, 0, 0, time.UTC)

	t.Run("valid request", func(t *testing.T) {
		loan, err := BuildNewLoan(loanID, bookID, "  Jane Roe ", "2026-11-02", now)

		assert.NoError(t, err)
		assert.Equal(t, loanID, loan.ID)
		assert.Equal(t, bookID, loan.BookID)
		assert.Equal(t, "Jane Roe", loan.Borrower)
		assert.Equal(t, now, loan.BorrowDate)
		assert.Equal(t, time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC), loan.DueDate)
	})

	t.Run("due today is allowed", func(t *testing.T) {
		_, err := BuildNewLoan(loanID, bookID, "Jane", "2026-10-17", now)

		assert.NoError(t, err)
	})

	t.Run("timestamp due date uses its date part", func(t *testing.T) {
		loan, err := BuildNewLoan(loanID, bookID, "Jane", "2026-10-20T09:00:00Z", now)

		assert.NoError(t, err)
		assert.Equal(t, "2026-10-20", FormatDate(loan.DueDate))
	})

	t.Run("today is taken in the location of now", func(t *testing.T) {
		tokyo := time.FixedZone("JST", 9*60*60)
		earlyMorning := time.Date(2026, 10, 18, 1, 0, 0, 0, tokyo)

		_, err := BuildNewLoan(loanID, bookID, "Jane", "2026-10-17", earlyMorning)

		assert.ErrorIs(t, err, ErrDueDateInPast)
	})

	tests := []struct {
		name        string
		borrower    string
		dueDate     string
		expectedErr error
	}{
		{name: "blank borrower", borrower: "  ", dueDate: "2026-11-02", expectedErr: ErrBorrowerRequired},
		{name: "missing due date", borrower: "Jane", dueDate: "", expectedErr: ErrDueDateRequired},
		{name: "malformed due date", borrower: "Jane", dueDate: "next friday", expectedErr: ErrDueDateMalformed},
		{name: "impossible due date", borrower: "Jane", dueDate: "2026-02-30", expectedErr: ErrDueDateMalformed},
		{name: "due date in the past", borrower: "Jane", dueDate: "2026-10-16", expectedErr: ErrDueDateInPast},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildNewLoan(loanID, bookID, tc.borrower, tc.dueDate, now)

			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}

	t.Run("nil ids", func(t *testing.T) {
		_, err := BuildNewLoan(uuid.Nil, bookID, "Jane", "2026-11-02", now)
		assert.ErrorIs(t, err, ErrInvalidID)

		_, err = BuildNewLoan(loanID, uuid.Nil, "Jane", "2026-11-02", now)
		assert.ErrorIs(t, err, ErrInvalidID)
	})
}

func Test_Loan_IsOverdue(t *testing.T) {
	today := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	returned := today

	tests := []struct {
		name     string
		loan     Loan
		expected bool
	}{
		{name: "due yesterday", loan: Loan{DueDate: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)}, expected: true},
		{name: "due today", loan: Loan{DueDate: time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)}, expected: false},
		{name: "returned late", loan: Loan{DueDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), ReturnedAt: &returned}, expected: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.loan.IsOverdue(today))
		})
	}
}

func Test_ParseLoanStatus(t *testing.T) {
	tests := []struct {
		raw         string
		expected    LoanStatus
		expectedErr error
	}{
		{raw: "", expected: LoanStatusActive},
		{raw: "active", expected: LoanStatusActive},
		{raw: " Overdue ", expected: LoanStatusOverdue},
		{raw: "returned", expected: LoanStatusReturned},
		{raw: "all", expected: LoanStatusAll},
		{raw: "lost", expectedErr: ErrInvalidLoanStatus},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			status, err := ParseLoanStatus(tc.raw)

			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Equal(t, tc.expected, status)
		})
	}
}

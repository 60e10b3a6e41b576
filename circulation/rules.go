package circulation

// CopyCounts is the copy bookkeeping of one book as read under its row lock.
type CopyCounts struct {
	Total     int
	Available int
}

// LentOut returns the number of copies currently on loan.
func (c CopyCounts) LentOut() int {
	return c.Total - c.Available
}

// Lend decides whether one more copy can be lent and returns the counts after lending it.
func (c CopyCounts) Lend() (CopyCounts, error) {
	if c.Available <= 0 {
		return c, ErrNoCopiesAvailable
	}

	return CopyCounts{Total: c.Total, Available: c.Available - 1}, nil
}

// Return gives one copy back. Available never exceeds Total, which also absorbs earlier drift.
func (c CopyCounts) Return() CopyCounts {
	return CopyCounts{Total: c.Total, Available: min(c.Total, c.Available+1)}
}

// WithTotal changes the number of copies owned while keeping the copies on loan.
// It fails with ErrCopiesBelowActiveLoans when fewer copies than are lent out would remain.
func (c CopyCounts) WithTotal(newTotal int) (CopyCounts, error) {
	if newTotal < 1 {
		return c, ErrCopiesTotalTooSmall
	}

	lentOut := c.LentOut()
	if newTotal < lentOut {
		return c, CopiesBelowActiveLoansError(newTotal, lentOut)
	}

	return CopyCounts{Total: newTotal, Available: newTotal - lentOut}, nil
}

// Valid reports whether 0 <= Available <= Total and Total >= 1.
func (c CopyCounts) Valid() bool {
	return c.Total >= 1 && c.Available >= 0 && c.Available <= c.Total
}

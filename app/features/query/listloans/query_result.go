package listloans

import "github.com/AntonStoeckl/library-circulation-go/circulation"

// Loans is the query result: active loans first, then by due date, then newest borrow first.
type Loans struct {
	Loans []circulation.LoanView
	Count int
}

package circulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_CopyCounts_Lend(t *testing.T) {
	t.Run("lending takes one copy", func(t *testing.T) {
		after, err := CopyCounts{Total: 3, Available: 1}.Lend()

		assert.NoError(t, err)
		assert.Equal(t, CopyCounts{Total: 3, Available: 0}, after)
	})

	t.Run("lending without copies is a conflict", func(t *testing.T) {
		before := CopyCounts{Total: 3, Available: 0}

		after, err := before.Lend()

		assert.ErrorIs(t, err, ErrNoCopiesAvailable)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, before, after)
	})
}

func Test_CopyCounts_Return(t *testing.T) {
	assert.Equal(t, CopyCounts{Total: 3, Available: 1}, CopyCounts{Total: 3, Available: 0}.Return())
	assert.Equal(t, CopyCounts{Total: 3, Available: 3}, CopyCounts{Total: 3, Available: 3}.Return(), "clamped at total")
}

func Test_CopyCounts_WithTotal(t *testing.T) {
	tests := []struct {
		name        string
		before      CopyCounts
		newTotal    int
		expected    CopyCounts
		expectedErr error
	}{
		{name: "grow keeps lent copies", before: CopyCounts{Total: 3, Available: 1}, newTotal: 5, expected: CopyCounts{Total: 5, Available: 3}},
		{name: "shrink to lent copies", before: CopyCounts{Total: 3, Available: 1}, newTotal: 2, expected: CopyCounts{Total: 2, Available: 0}},
		{name: "unchanged total", before: CopyCounts{Total: 2, Available: 2}, newTotal: 2, expected: CopyCounts{Total: 2, Available: 2}},
		{name: "below lent copies", before: CopyCounts{Total: 3, Available: 0}, newTotal: 2, expected: CopyCounts{Total: 3, Available: 0}, expectedErr: ErrCopiesBelowActiveLoans},
		{name: "zero total", before: CopyCounts{Total: 3, Available: 3}, newTotal: 0, expected: CopyCounts{Total: 3, Available: 3}, expectedErr: ErrCopiesTotalTooSmall},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			after, err := tc.before.WithTotal(tc.newTotal)

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				assert.NoError(t, err)
				assert.True(t, after.Valid())
			}

			assert.Equal(t, tc.expected, after)
		})
	}
}

func Test_CopyCounts_ThreeCopyScenario(t *testing.T) {
	counts := CopyCounts{Total: 3, Available: 3}

	var err error
	for range 3 {
		counts, err = counts.Lend()
		assert.NoError(t, err)
	}

	_, err = counts.Lend()
	assert.ErrorIs(t, err, ErrNoCopiesAvailable)

	counts = counts.Return()
	assert.Equal(t, 1, counts.Available)

	counts, err = counts.Lend()
	assert.NoError(t, err)
	assert.Equal(t, 0, counts.Available)
	assert.Equal(t, 3, counts.LentOut())
}

func Test_CopiesBelowActiveLoansError(t *testing.T) {
	err := CopiesBelowActiveLoansError(1, 2)

	assert.ErrorIs(t, err, ErrCopiesBelowActiveLoans)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Contains(t, err.Error(), "2")
}

package extraction_test

import (
	"testing"

	"go-leave-assistant/internal/extraction"

	"github.com/stretchr/testify/assert"
)

func TestBag_Merge(t *testing.T) {
	t.Run("new values overwrite, absent values keep the old ones", func(t *testing.T) {
		old := extraction.Bag{LeaveType: "sick", Reason: "flu"}
		merged := old.Merge(extraction.Bag{StartDate: "2024-06-15", Reason: "  "})

		assert.Equal(t, "sick", merged.LeaveType)
		assert.Equal(t, "2024-06-15", merged.StartDate)
		assert.Equal(t, "flu", merged.Reason)
	})

	t.Run("non-empty overwrite wins", func(t *testing.T) {
		merged := extraction.Bag{LeaveType: "sick"}.Merge(extraction.Bag{LeaveType: "annual", Duration: 2})
		assert.Equal(t, "annual", merged.LeaveType)
		assert.Equal(t, 2.0, merged.Duration)
	})

	t.Run("merging an empty bag is a no-op", func(t *testing.T) {
		old := extraction.Bag{StartDate: "June 3", HalfDay: true}
		assert.Equal(t, old, old.Merge(extraction.Bag{}))
		assert.True(t, extraction.Bag{}.IsEmpty())
		assert.False(t, old.IsEmpty())
	})
}

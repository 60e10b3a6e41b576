package backup

import (
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshot holds every book ordered by title and every loan ordered by borrow date.
type Snapshot struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Books       []circulation.Book `json:"books"`
	Loans       []circulation.Loan `json:"loans"`
}

// Filename is the download name of the snapshot, stamped with its generation time in milliseconds.
func (s Snapshot) Filename() string {
	return "backup-" + strconv.FormatInt(s.GeneratedAt.UnixMilli(), 10) + ".json"
}

// MarshalIndented renders the snapshot as JSON indented by two spaces.
func (s Snapshot) MarshalIndented() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

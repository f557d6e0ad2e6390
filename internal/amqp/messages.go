package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
)

// RecordAppendedMessage announces that a record was durably appended to an
// owner's ledger. Amount is the decimal text so consumers never see float
// rounding.
type RecordAppendedMessage struct {
	EventID   string    `json:"event_id"`
	Owner     string    `json:"owner"`
	Date      string    `json:"date"`
	Category  string    `json:"category"`
	Amount    string    `json:"amount"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordAppendedMessage builds the event for rec with a fresh event id.
func NewRecordAppendedMessage(owner string, rec core.Record) *RecordAppendedMessage {
	return &RecordAppendedMessage{
		EventID:   uuid.NewString(),
		Owner:     owner,
		Date:      rec.Date.String(),
		Category:  rec.Category,
		Amount:    core.FormatAmount(rec.Amount),
		Note:      rec.Note,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordAppendedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

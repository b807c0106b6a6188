package notify

import (
	"encoding/json"
	"time"

	"branchboard/internal/store"
)

// Totals are the entity counts of a snapshot.
type Totals struct {
	Branches       int `json:"branches"`
	Employees      int `json:"employees"`
	Advances       int `json:"advances"`
	SalaryPayments int `json:"salaryPayments"`
	Attendance     int `json:"attendance"`
}

// SnapshotChangedMessage announces a committed command. It carries counts
// only; consumers read the snapshot itself from the shared slot.
type SnapshotChangedMessage struct {
	Version   uint64    `json:"version"`
	Totals    Totals    `json:"totals"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSnapshotChangedMessage(version uint64, s store.Snapshot) *SnapshotChangedMessage {
	return &SnapshotChangedMessage{
		Version: version,
		Totals: Totals{
			Branches:       len(s.Branches),
			Employees:      len(s.Employees),
			Advances:       len(s.Advances),
			SalaryPayments: len(s.SalaryPayments),
			Attendance:     len(s.Attendance),
		},
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotChangedMessageFromJSON creates a message from JSON bytes
func SnapshotChangedMessageFromJSON(data []byte) (*SnapshotChangedMessage, error) {
	var msg SnapshotChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

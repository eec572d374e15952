package models

import "time"

// ComplaintStatus is the lifecycle tag of a complaint.
type ComplaintStatus string

// ComplaintStatusNew is the only status assigned today.
const ComplaintStatusNew ComplaintStatus = "new"

// Complaint is one entry of the append-only complaint log.
type Complaint struct {
	Timestamp              time.Time       `json:"timestamp"`
	TargetID               int64           `json:"target_id"`
	TargetDisplayName      string          `json:"target_name"`
	TargetCode             string          `json:"target_code"`
	ComplainantID          int64           `json:"complainant_id"`
	ComplainantDisplayName string          `json:"complainant_name"`
	Reason                 string          `json:"reason"`
	Status                 ComplaintStatus `json:"status"`
}

// ComplaintEntry is the persisted row of a complaint.
type ComplaintEntry struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	Timestamp              time.Time `gorm:"not null;index" json:"timestamp"`
	TargetID               int64     `gorm:"not null;index" json:"target_id"`
	TargetDisplayName      string    `gorm:"not null" json:"target_name"`
	TargetCode             string    `gorm:"size:6;not null" json:"target_code"`
	ComplainantID          int64     `gorm:"not null;index" json:"complainant_id"`
	ComplainantDisplayName string    `gorm:"not null" json:"complainant_name"`
	Reason                 string    `gorm:"type:text" json:"reason"`
	Status                 string    `gorm:"size:16;not null" json:"status"`
}

// TableName pins the complaint log table name.
func (ComplaintEntry) TableName() string {
	return "complaints"
}

// BoardState is the single persisted row holding the member/post aggregate document.
type BoardState struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Document  string    `gorm:"type:text;not null" json:"document"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the aggregate table name.
func (BoardState) TableName() string {
	return "board_states"
}

package types

import "time"

// Campaign lifecycle states. Transitions are forward-only:
// queued -> pending -> active | rejected, with error as a terminal
// flag on a pending row until an operator clears it.
const (
	StatusQueued   = "queued"
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// VoteSet maps voter address to choice. One entry per voter, last
// write wins.
type VoteSet map[string]bool

// CampaignFields is the immutable business payload captured at intake.
type CampaignFields struct {
	Owner        string `gorm:"size:42;not null" json:"owner"`
	Title        string `gorm:"size:255;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	Image        string `gorm:"size:512" json:"image"`
	TargetAmount string `gorm:"size:78;not null" json:"targetAmount"`
	Deadline     int64  `gorm:"not null" json:"deadline"`
}

// QueuedCampaign is a campaign awaiting migration. The proposal id is
// the primary key so a duplicate submission fails at the store instead
// of relying on a pre-check query.
type QueuedCampaign struct {
	ProposalID     string `gorm:"primaryKey;size:66" json:"proposalId"`
	CampaignFields `gorm:"embedded"`
	Status         string    `gorm:"size:16;not null" json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (QueuedCampaign) TableName() string { return "queue_campaigns" }

// PendingCampaign is a campaign registered on-chain and open for
// off-chain voting. ID is store-generated at migration; ProposalID
// remains the on-chain correlation key.
type PendingCampaign struct {
	ID             string `gorm:"primaryKey;size:36" json:"id"`
	ProposalID     string `gorm:"uniqueIndex;size:66;not null" json:"proposalId"`
	CampaignFields `gorm:"embedded"`
	Status         string    `gorm:"size:16;not null;index" json:"status"`
	Error          string    `gorm:"size:1024" json:"error,omitempty"`
	Votes          VoteSet   `gorm:"type:json;serializer:json" json:"votes"`
	QueuedAt       time.Time `json:"queuedAt"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (PendingCampaign) TableName() string { return "pending_campaigns" }

// ResolvedCampaign is the shared shape of the two terminal collections.
// Terminal rows are never deleted; they are the audit trail.
type ResolvedCampaign struct {
	ID             string `gorm:"primaryKey;size:36" json:"id"`
	ProposalID     string `gorm:"uniqueIndex;size:66;not null" json:"proposalId"`
	CampaignFields `gorm:"embedded"`
	Status         string    `gorm:"size:16;not null" json:"status"`
	VotePassed     bool      `gorm:"not null" json:"votePassed"`
	Votes          VoteSet   `gorm:"type:json;serializer:json" json:"votes"`
	QueuedAt       time.Time `json:"queuedAt"`
	ResolvedAt     time.Time `json:"resolvedAt"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type ActiveCampaign struct {
	ResolvedCampaign `gorm:"embedded"`
}

func (ActiveCampaign) TableName() string { return "active_campaigns" }

type RejectedCampaign struct {
	ResolvedCampaign `gorm:"embedded"`
}

func (RejectedCampaign) TableName() string { return "rejected_campaigns" }

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}

package branches

import "time"

// BranchType partitions operating outlets from head-office overhead.
type BranchType string

const (
	BranchTypeHQ        BranchType = "HQ"
	BranchTypeOperating BranchType = "OPERATING"
)

// Branch represents a branch entity.
type Branch struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Type      BranchType `json:"type"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

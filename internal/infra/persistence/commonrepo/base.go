package commonrepo

import "time"

// Model carries the identity and bookkeeping columns shared by every
// persistence object.
type Model struct {
	ID        uint64    `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index;autoCreateTime"`
	UpdatedAt time.Time `gorm:"index;autoUpdateTime"`
}

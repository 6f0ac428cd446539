package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant is one HOA community, resolved by subdomain slug. Each tenant owns
// its own pair of storage buckets.
type Tenant struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Slug      string    `gorm:"type:varchar(63);uniqueIndex;not null" json:"slug"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// UploadsBucket is the tenant's private bucket; every uploaded blob lands
// here and is served through time-limited signed URLs.
func (t *Tenant) UploadsBucket() string {
	return fmt.Sprintf("%s-uploads", t.Slug)
}

// PublicBucket holds copies of published public documents and is served
// through stable unsigned URLs.
func (t *Tenant) PublicBucket() string {
	return fmt.Sprintf("%s-public", t.Slug)
}

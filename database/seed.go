package database

import (
	"fmt"
	"log"

	"github.com/hoahub/portal-api/model"
	"github.com/hoahub/portal-api/utils/auth"
	"gorm.io/gorm"
)

// SeedTenant creates a tenant with an admin user, skipping anything that
// already exists. Intended for development and first-run setup.
func (s *GORMStore) SeedTenant(slug, name, adminEmail, adminPassword string) error {
	var tenant model.Tenant
	err := s.db.First(&tenant, "slug = ?", slug).Error
	if err == gorm.ErrRecordNotFound {
		tenant = model.Tenant{Slug: slug, Name: name}
		if err := s.db.Create(&tenant).Error; err != nil {
			return fmt.Errorf("failed to create tenant %s: %w", slug, err)
		}
		log.Printf("Seeded tenant %s (%s)", name, slug)
	} else if err != nil {
		return err
	}

	var user model.User
	err = s.db.First(&user, "email = ?", adminEmail).Error
	if err == gorm.ErrRecordNotFound {
		hash, hashErr := auth.HashPassword(adminPassword)
		if hashErr != nil {
			return fmt.Errorf("failed to hash admin password: %w", hashErr)
		}
		user = model.User{Email: adminEmail, PasswordHash: hash}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user %s: %w", adminEmail, err)
		}
		log.Printf("Seeded user %s", adminEmail)
	} else if err != nil {
		return err
	}

	var membership model.Membership
	err = s.db.First(&membership, "tenant_id = ? AND user_id = ?", tenant.ID, user.ID).Error
	if err == gorm.ErrRecordNotFound {
		membership = model.Membership{TenantID: tenant.ID, UserID: user.ID, Role: model.RoleAdmin}
		if err := s.db.Create(&membership).Error; err != nil {
			return fmt.Errorf("failed to create membership: %w", err)
		}
		log.Printf("Granted %s admin on %s", adminEmail, slug)
	} else if err != nil {
		return err
	}

	return nil
}

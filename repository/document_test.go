package repository

import (
	"context"
	"testing"
	"time"

	"github.com/hoahub/portal-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&model.Tenant{}, &model.Document{}))
	return db
}

func createTenant(t *testing.T, db *gorm.DB, slug string) *model.Tenant {
	t.Helper()

	tenant := &model.Tenant{Slug: slug, Name: slug}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func createDocument(t *testing.T, repo *DocumentRepository, tenantID, path string) *model.Document {
	t.Helper()

	doc := &model.Document{
		TenantID:    tenantID,
		Title:       path,
		Filename:    path,
		StoragePath: path,
		DocType:     model.DocTypeOther,
	}
	require.NoError(t, repo.Create(context.Background(), doc))
	return doc
}

func TestCreateForcesProvisionalDefaults(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db)
	tenant := createTenant(t, db, "oak-hollow")

	doc := &model.Document{
		TenantID:    tenant.ID,
		Filename:    "bylaws.pdf",
		StoragePath: "documents/1_bylaws.pdf",
		IsAnalyzed:  true,
		IsPublished: true,
		IsArchived:  true,
	}
	require.NoError(t, repo.Create(context.Background(), doc))

	stored, err := repo.Get(context.Background(), tenant.ID, doc.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsAnalyzed)
	assert.False(t, stored.IsPublished)
	assert.False(t, stored.IsArchived)
	assert.Equal(t, model.LifecyclePending, stored.Lifecycle())
}

func TestCreateRejectsDuplicateStoragePath(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db)
	tenant := createTenant(t, db, "oak-hollow")

	createDocument(t, repo, tenant.ID, "documents/1_a.pdf")

	dup := &model.Document{
		TenantID:    tenant.ID,
		Filename:    "a.pdf",
		StoragePath: "documents/1_a.pdf",
	}
	err := repo.Create(context.Background(), dup)
	assert.ErrorIs(t, err, ErrDuplicateStoragePath)
}

func TestCreateAllowsSamePathAcrossTenants(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db)
	first := createTenant(t, db, "oak-hollow")
	second := createTenant(t, db, "sunset-ridge")

	createDocument(t, repo, first.ID, "documents/1_a.pdf")
	createDocument(t, repo, second.ID, "documents/1_a.pdf")
}

func TestGetEnforcesTenantScope(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db)
	owner := createTenant(t, db, "oak-hollow")
	other := createTenant(t, db, "sunset-ridge")

	doc := createDocument(t, repo, owner.ID, "documents/1_a.pdf")

	_, err := repo.Get(context.Background(), other.ID, doc.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = repo.Get(context.Background(), owner.ID, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateNormalizesDocTypeAndProtectsIdentity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db)
	tenant := createTenant(t, db, "oak-hollow")
	other := createTenant(t, db, "sunset-ridge")

	doc := createDocument(t, repo, tenant.ID, "documents/1_a.pdf")

	err := repo.Update(context.Background(), tenant.ID, doc.ID, map[string]interface{}{
		"doc_type":  "meeting-agenda",
		"tenant_id": other.ID,
		"title":     "Annual Budget",
	})
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), tenant.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocTypeOther, stored.DocType)
	assert.Equal(t, tenant.ID, stored.TenantID)
	assert.Equal(t, "Annual Budget", stored.Title)
}

func TestUpdateDistinguishesMissingFromForeign(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db)
	owner := createTenant(t, db, "oak-hollow")
	other := createTenant(t, db, "sunset-ridge")

	doc := createDocument(t, repo, owner.ID, "documents/1_a.pdf")
	fields := map[string]interface{}{"title": "x"}

	err := repo.Update(context.Background(), other.ID, doc.ID, fields)
	assert.ErrorIs(t, err, ErrAccessDenied)

	err = repo.Update(context.Background(), owner.ID, "00000000-0000-0000-0000-000000000000", fields)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteEnforcesTenantScope(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db)
	owner := createTenant(t, db, "oak-hollow")
	other := createTenant(t, db, "sunset-ridge")

	doc := createDocument(t, repo, owner.ID, "documents/1_a.pdf")

	err := repo.Delete(context.Background(), other.ID, doc.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	require.NoError(t, repo.Delete(context.Background(), owner.ID, doc.ID))

	_, err = repo.Get(context.Background(), owner.ID, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueryOrdersNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db)
	tenant := createTenant(t, db, "oak-hollow")

	oldest := createDocument(t, repo, tenant.ID, "documents/1_a.pdf")
	middle := createDocument(t, repo, tenant.ID, "documents/2_b.pdf")
	newest := createDocument(t, repo, tenant.ID, "documents/3_c.pdf")

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, doc := range []*model.Document{oldest, middle, newest} {
		require.NoError(t, db.Model(&model.Document{}).Where("id = ?", doc.ID).
			Update("uploaded_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	docs, err := repo.Query(context.Background(), tenant.ID, Filter{})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, newest.ID, docs[0].ID)
	assert.Equal(t, middle.ID, docs[1].ID)
	assert.Equal(t, oldest.ID, docs[2].ID)
}

func TestQueryCombinesFiltersWithAND(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db)
	tenant := createTenant(t, db, "oak-hollow")

	budget2023 := createDocument(t, repo, tenant.ID, "documents/1_budget23.pdf")
	budget2024 := createDocument(t, repo, tenant.ID, "documents/2_budget24.pdf")
	minutes2024 := createDocument(t, repo, tenant.ID, "documents/3_minutes.pdf")

	set := func(id string, fields map[string]interface{}) {
		require.NoError(t, repo.Update(context.Background(), tenant.ID, id, fields))
	}
	set(budget2023.ID, map[string]interface{}{"title": "Budget 2023", "doc_type": model.DocTypeBudget, "document_year": 2023})
	set(budget2024.ID, map[string]interface{}{"title": "Budget 2024", "doc_type": model.DocTypeBudget, "document_year": 2024})
	set(minutes2024.ID, map[string]interface{}{"title": "Board Minutes", "doc_type": model.DocTypeMinutes, "document_year": 2024})

	year := 2024
	docType := model.DocTypeBudget
	docs, err := repo.Query(context.Background(), tenant.ID, Filter{Year: &year, DocType: &docType})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, budget2024.ID, docs[0].ID)
}

func TestQuerySearchIsCaseInsensitive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db)
	tenant := createTenant(t, db, "oak-hollow")

	doc := createDocument(t, repo, tenant.ID, "documents/1_a.pdf")
	require.NoError(t, repo.Update(context.Background(), tenant.ID, doc.ID,
		map[string]interface{}{"title": "Pool Rules and Regulations"}))
	createDocument(t, repo, tenant.ID, "documents/2_b.pdf")

	docs, err := repo.Query(context.Background(), tenant.ID, Filter{Search: "POOL"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.ID, docs[0].ID)
}

func TestQueryVisibilityImpliesPublished(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db)
	tenant := createTenant(t, db, "oak-hollow")

	publicDoc := createDocument(t, repo, tenant.ID, "documents/1_a.pdf")
	membersDoc := createDocument(t, repo, tenant.ID, "documents/2_b.pdf")
	unpublishedPublic := createDocument(t, repo, tenant.ID, "documents/3_c.pdf")

	set := func(id string, fields map[string]interface{}) {
		require.NoError(t, repo.Update(context.Background(), tenant.ID, id, fields))
	}
	set(publicDoc.ID, map[string]interface{}{"is_published": true, "is_public": true})
	set(membersDoc.ID, map[string]interface{}{"is_published": true, "is_public": false})
	set(unpublishedPublic.ID, map[string]interface{}{"is_public": true})

	public := model.VisibilityPublic
	docs, err := repo.Query(context.Background(), tenant.ID, Filter{Visibility: &public})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, publicDoc.ID, docs[0].ID)

	members := model.VisibilityMembers
	docs, err = repo.Query(context.Background(), tenant.ID, Filter{Visibility: &members})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, membersDoc.ID, docs[0].ID)
}

func TestQueryScopedToTenant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db)
	owner := createTenant(t, db, "oak-hollow")
	other := createTenant(t, db, "sunset-ridge")

	createDocument(t, repo, owner.ID, "documents/1_a.pdf")
	createDocument(t, repo, other.ID, "documents/1_b.pdf")

	docs, err := repo.Query(context.Background(), owner.ID, Filter{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, owner.ID, docs[0].TenantID)
}

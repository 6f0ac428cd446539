package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocType classifies a governance document
type DocType string

const (
	DocTypeBylaws      DocType = "bylaws"
	DocTypeDeclaration DocType = "declaration"
	DocTypeArticles    DocType = "articles"
	DocTypeRules       DocType = "rules"
	DocTypeBudget      DocType = "budget"
	DocTypeFinancials  DocType = "financials"
	DocTypeMinutes     DocType = "minutes"
	DocTypeNotices     DocType = "notices"
	DocTypeContracts   DocType = "contracts"
	DocTypeInsurance   DocType = "insurance"
	DocTypeOther       DocType = "other"
)

var validDocTypes = map[DocType]bool{
	DocTypeBylaws:      true,
	DocTypeDeclaration: true,
	DocTypeArticles:    true,
	DocTypeRules:       true,
	DocTypeBudget:      true,
	DocTypeFinancials:  true,
	DocTypeMinutes:     true,
	DocTypeNotices:     true,
	DocTypeContracts:   true,
	DocTypeInsurance:   true,
	DocTypeOther:       true,
}

// AllDocTypes returns the enumerated set in display order.
func AllDocTypes() []DocType {
	return []DocType{
		DocTypeBylaws, DocTypeDeclaration, DocTypeArticles, DocTypeRules,
		DocTypeBudget, DocTypeFinancials, DocTypeMinutes, DocTypeNotices,
		DocTypeContracts, DocTypeInsurance, DocTypeOther,
	}
}

// IsValidDocType reports whether t is in the enumerated set.
func IsValidDocType(t DocType) bool {
	return validDocTypes[t]
}

// NormalizeDocType collapses anything outside the enumerated set to "other".
func NormalizeDocType(s string) DocType {
	t := DocType(s)
	if !validDocTypes[t] {
		return DocTypeOther
	}
	return t
}

// LifecycleState is the tagged view over the stored boolean flags. The
// booleans stay in the row for record-store compatibility; this projection is
// read-only and closes off combinations the domain does not intend.
type LifecycleState string

const (
	LifecyclePending   LifecycleState = "pending"   // enrichment not yet complete
	LifecycleStaged    LifecycleState = "staged"    // analyzed, awaiting publication
	LifecyclePublished LifecycleState = "published" // visible in the catalog
	LifecycleArchived  LifecycleState = "archived"  // retired from default views
)

// Visibility of a published document.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityMembers Visibility = "members"
)

// Document is an uploaded file owned by one tenant, enriched with metadata by
// the classifier or by an admin.
type Document struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID string `gorm:"type:uuid;index;not null;uniqueIndex:idx_tenant_storage_path" json:"tenant_id"`

	// Blob reference. StoragePath is the object key in the tenant's uploads
	// bucket and is unique within the tenant.
	StoragePath string `gorm:"not null;uniqueIndex:idx_tenant_storage_path" json:"storage_path"`
	Filename    string `gorm:"not null" json:"filename"`
	FileType    string `gorm:"type:varchar(255)" json:"file_type,omitempty"` // MIME string, empty when unknown

	// Descriptive metadata, classifier- or admin-supplied.
	Title        string         `json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	DocType      DocType        `gorm:"type:varchar(20);not null;default:'other'" json:"doc_type"`
	DocumentYear *int           `json:"document_year,omitempty"`
	Tags         datatypes.JSON `json:"tags,omitempty"` // optional capability, JSON array of strings

	// Lifecycle flags. Rows written before the enrichment pipeline existed
	// lack these columns; migrations backfill is_analyzed=true for them since
	// their metadata was entered by hand.
	IsAnalyzed  bool `gorm:"not null;default:false" json:"is_analyzed"`
	IsPublished bool `gorm:"not null;default:false" json:"is_published"`
	IsArchived  bool `gorm:"not null;default:false" json:"is_archived"`
	IsPublic    bool `gorm:"not null;default:false" json:"is_public"`

	UploadedBy string    `gorm:"type:uuid;index" json:"uploaded_by"`
	UploadedAt time.Time `gorm:"not null" json:"uploaded_at"`
}

// BeforeCreate assigns identity and the immutable upload timestamp.
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now().UTC()
	}
	if !validDocTypes[d.DocType] {
		d.DocType = DocTypeOther
	}
	return nil
}

// Lifecycle projects the stored flags onto the tagged state. Archived wins
// over everything, pending over publication: an archived-and-unanalyzed row
// is still just Archived, an unanalyzed published row is still Pending.
func (d *Document) Lifecycle() LifecycleState {
	switch {
	case d.IsArchived:
		return LifecycleArchived
	case !d.IsAnalyzed:
		return LifecyclePending
	case d.IsPublished:
		return LifecyclePublished
	default:
		return LifecycleStaged
	}
}

// Visibility is meaningful only for published documents; unpublished
// documents are always members-only.
func (d *Document) Visibility() Visibility {
	if d.IsPublished && d.IsPublic {
		return VisibilityPublic
	}
	return VisibilityMembers
}

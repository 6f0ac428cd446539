package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDocType(t *testing.T) {
	assert.Equal(t, DocTypeBylaws, NormalizeDocType("bylaws"))
	assert.Equal(t, DocTypeOther, NormalizeDocType("meeting-agenda"))
	assert.Equal(t, DocTypeOther, NormalizeDocType(""))
	assert.Equal(t, DocTypeOther, NormalizeDocType("BYLAWS"))
}

func TestLifecycleProjection(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want LifecycleState
	}{
		{"fresh upload", Document{}, LifecyclePending},
		{"analyzed", Document{IsAnalyzed: true}, LifecycleStaged},
		{"published", Document{IsAnalyzed: true, IsPublished: true}, LifecyclePublished},
		{"archived wins over published", Document{IsAnalyzed: true, IsPublished: true, IsArchived: true}, LifecycleArchived},
		{"archived wins over pending", Document{IsArchived: true}, LifecycleArchived},
		{"published but unanalyzed is pending", Document{IsPublished: true}, LifecyclePending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.doc.Lifecycle())
		})
	}
}

func TestVisibility(t *testing.T) {
	assert.Equal(t, VisibilityPublic, (&Document{IsPublished: true, IsPublic: true}).Visibility())
	assert.Equal(t, VisibilityMembers, (&Document{IsPublished: true}).Visibility())
	// Unpublished documents are members-only no matter the flag.
	assert.Equal(t, VisibilityMembers, (&Document{IsPublic: true}).Visibility())
}

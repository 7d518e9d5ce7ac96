// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents members and administrators.
//
// NOTE:
//   - User records are owned by the authentication service; MemberHub reads
//     them but never creates or mutates them.
//   - Older records carry a single organization_id; current records carry an
//     organization_ids list. Use OrgIDs() instead of reading either field
//     directly.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`
	Role       string             `bson:"role" json:"role"` // member | admin | superadmin
	Status     string             `bson:"status,omitempty" json:"status,omitempty"`

	// Legacy single-organization field, still present on old documents.
	OrganizationID *primitive.ObjectID `bson:"organization_id,omitempty" json:"organization_id,omitempty"`
	// Current multi-organization field.
	OrganizationIDs []primitive.ObjectID `bson:"organization_ids,omitempty" json:"organization_ids,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// OrgIDs merges the legacy organization_id field and the organization_ids
// list into a single deduplicated slice. This is the only supported way to
// read a user's organizations.
func (u *User) OrgIDs() []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(u.OrganizationIDs)+1)
	out := make([]primitive.ObjectID, 0, len(u.OrganizationIDs)+1)
	if u.OrganizationID != nil && *u.OrganizationID != primitive.NilObjectID {
		seen[*u.OrganizationID] = struct{}{}
		out = append(out, *u.OrganizationID)
	}
	for _, id := range u.OrganizationIDs {
		if id == primitive.NilObjectID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// BelongsTo reports whether the user is affiliated with the given organization.
func (u *User) BelongsTo(orgID primitive.ObjectID) bool {
	for _, id := range u.OrgIDs() {
		if id == orgID {
			return true
		}
	}
	return false
}

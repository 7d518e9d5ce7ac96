// internal/domain/models/article.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Article status values. The state machine is linear: draft → scheduled →
// published, with scheduled optional. The scheduled → published transition
// is performed by the publish sweep once PublishAt has passed.
const (
	ArticleDraft     = "draft"
	ArticleScheduled = "scheduled"
	ArticlePublished = "published"
)

// Article visibility values for published articles.
const (
	VisibilityAll          = "all"
	VisibilityOrganization = "organization"
)

// ArticleTransitionAllowed reports whether an article may move between the
// two statuses. The machine only moves forward: a published article stays
// published, and a scheduled article can no longer go back to draft.
// Staying in place is always allowed so content edits don't need a special
// case.
func ArticleTransitionAllowed(from, to string) bool {
	switch from {
	case ArticleDraft:
		return to == ArticleDraft || to == ArticleScheduled || to == ArticlePublished
	case ArticleScheduled:
		return to == ArticleScheduled || to == ArticlePublished
	case ArticlePublished:
		return to == ArticlePublished
	default:
		return false
	}
}

// Article is blog-style content authored by an organization admin.
type Article struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	AuthorID       primitive.ObjectID `bson:"author_id" json:"author_id"`

	Title    string `bson:"title" json:"title"`
	TitleCI  string `bson:"title_ci" json:"title_ci"` // lowercase, diacritics-stripped
	BodyHTML string `bson:"body_html" json:"body_html"`

	Status     string     `bson:"status" json:"status"`
	PublishAt  *time.Time `bson:"publish_at,omitempty" json:"publish_at,omitempty"`
	Visibility string     `bson:"visibility" json:"visibility"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

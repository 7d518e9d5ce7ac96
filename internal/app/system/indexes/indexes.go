// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureOrganizations(ctx, db); err != nil {
		problems = append(problems, "organizations: "+err.Error())
	}
	if err := ensureMemberships(ctx, db); err != nil {
		problems = append(problems, "memberships: "+err.Error())
	}
	if err := ensurePreferences(ctx, db); err != nil {
		problems = append(problems, "preferences: "+err.Error())
	}
	if err := ensureParameters(ctx, db); err != nil {
		problems = append(problems, "parameters: "+err.Error())
	}
	if err := ensureCommunications(ctx, db); err != nil {
		problems = append(problems, "communications: "+err.Error())
	}
	if err := ensureArticles(ctx, db); err != nil {
		problems = append(problems, "articles: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolOf(p *bool) bool { return p != nil && *p }

// ensureIndexSet reconciles the desired indexes for one collection. An index
// with the same key pattern and uniqueness is reused even under a different
// name; a uniqueness mismatch drops and recreates it.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, desired []mongo.IndexModel) error {
	existing := map[string]existingIndex{} // key signature -> index
	cur, err := coll.Indexes().List(ctx)
	if err == nil {
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var idx existingIndex
			if err := cur.Decode(&idx); err != nil {
				zap.L().Warn("failed to decode existing index",
					zap.String("collection", coll.Name()),
					zap.Error(err))
				continue
			}
			existing[keySig(idx.Key)] = idx
		}
	}

	var errs []string
	for _, m := range desired {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))

		if ex, ok := existing[sig]; ok {
			if boolOf(unique) == boolOf(ex.Unique) {
				continue
			}
			// Uniqueness changed. Drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", boolOf(unique)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email must be unique across all users (global, cross-org).
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Per-org member lookups, both field generations.
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}},
			Options: options.Index().SetName("idx_users_org"),
		},
		{
			Keys:    bson.D{{Key: "organization_ids", Value: 1}},
			Options: options.Index().SetName("idx_users_orgs"),
		},
	})
}

func ensureOrganizations(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("organizations")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_orgs_nameci"),
		},
		// Audience values address organizations by code.
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_orgs_code"),
		},
	})
}

func ensureMemberships(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("memberships")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Exactly one membership per (user, org, year).
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "organization_id", Value: 1},
				{Key: "year", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_memberships_user_org_year"),
		},
		// Criteria resolution: {org, year, status}.
		{
			Keys: bson.D{
				{Key: "organization_id", Value: 1},
				{Key: "year", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("idx_memberships_org_year_status"),
		},
		// Health-alert pool and legacy audience sweep.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "year", Value: 1}},
			Options: options.Index().SetName("idx_memberships_status_year"),
		},
		// A user's own membership history.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "year", Value: -1}},
			Options: options.Index().SetName("idx_memberships_user_year"),
		},
	})
}

func ensurePreferences(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("preferences")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// At most one preference document per user; GetOrCreate upserts on it.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_prefs_user"),
		},
	})
}

func ensureParameters(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("parameters")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One parameter set per organization per year.
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "year", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_params_org_year"),
		},
		// Daily renewal-window sweep.
		{
			Keys:    bson.D{{Key: "membership_open", Value: 1}, {Key: "renewal_opens_at", Value: 1}},
			Options: options.Index().SetName("idx_params_open_opensat"),
		},
	})
}

func ensureCommunications(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("communications")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Scheduled-send sweep.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "scheduled_at", Value: 1}},
			Options: options.Index().SetName("idx_comms_status_scheduled"),
		},
		// Per-org listing, newest first.
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_comms_org_created"),
		},
	})
}

func ensureArticles(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("articles")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Scheduled-publish sweep.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "publish_at", Value: 1}},
			Options: options.Index().SetName("idx_articles_status_publishat"),
		},
		// Listing, newest first.
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_articles_created"),
		},
	})
}

// internal/app/system/recipients/recipients.go

// Package recipients computes the deduplicated, preference-filtered
// recipient set for a communication.
//
// A communication's three targeting shapes (health alert, criteria list,
// legacy audience value) are collapsed into a tagged Rule before resolution,
// so the first-match-wins priority lives in exactly one place and the
// resolver can switch over it exhaustively.
package recipients

import (
	"context"
	"time"

	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// RuleKind tags the targeting shape a communication uses.
type RuleKind int

const (
	// RuleHealthAlert targets everyone with a current or past membership,
	// gated by the health-alerts preference. All other targeting fields are
	// ignored.
	RuleHealthAlert RuleKind = iota
	// RuleCriteria targets the union of explicit {org, year, status}
	// membership criteria, gated by the own-organization preference.
	RuleCriteria
	// RuleLegacy targets current-year active members through the older
	// single-value audience field.
	RuleLegacy
)

// Rule is a communication's targeting rule in tagged form.
type Rule struct {
	Kind     RuleKind
	Criteria []models.MembershipCriterion // RuleCriteria only
	Audience string                       // RuleLegacy only
	OrgID    primitive.ObjectID           // the communication's own organization
}

// RuleFor derives the tagged rule from a communication's targeting fields.
// Priority: health alert, then criteria list, then legacy audience.
func RuleFor(comm *models.Communication) Rule {
	switch {
	case comm.HealthAlert:
		return Rule{Kind: RuleHealthAlert, OrgID: comm.OrganizationID}
	case len(comm.Criteria) > 0:
		return Rule{Kind: RuleCriteria, Criteria: comm.Criteria, OrgID: comm.OrganizationID}
	default:
		return Rule{Kind: RuleLegacy, Audience: comm.Audience, OrgID: comm.OrganizationID}
	}
}

// MembershipSource is the membership store surface the resolver needs.
type MembershipSource interface {
	ByStatuses(ctx context.Context, statuses []string) ([]models.Membership, error)
	ByCriterion(ctx context.Context, crit models.MembershipCriterion) ([]models.Membership, error)
	ActiveInYear(ctx context.Context, year int) ([]models.Membership, error)
}

// UserSource looks up users by ID.
type UserSource interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// PreferenceSource reports a user's opt-in flags; (nil, nil) means the user
// has no preference document.
type PreferenceSource interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*models.Preference, error)
}

// OrganizationSource resolves legacy audience values that name an
// organization by code.
type OrganizationSource interface {
	GetByCode(ctx context.Context, code string) (models.Organization, error)
}

// Resolver computes recipient sets. It is stateless between calls;
// preference lookups happen per user, per resolution, with no caching.
//
// A user with no preference document is excluded here even though the
// preferences endpoint would hand that same user the opt-in defaults. The
// two paths disagree on purpose: resolution never creates documents, and
// silence is treated as not-opted-in.
type Resolver struct {
	memberships MembershipSource
	users       UserSource
	prefs       PreferenceSource
	orgs        OrganizationSource
	now         func() time.Time
	log         *zap.Logger
}

// New builds a Resolver over the given sources.
func New(memberships MembershipSource, users UserSource, prefs PreferenceSource, orgs OrganizationSource, logger *zap.Logger) *Resolver {
	return &Resolver{
		memberships: memberships,
		users:       users,
		prefs:       prefs,
		orgs:        orgs,
		now:         time.Now,
		log:         logger,
	}
}

// Resolve returns the deduplicated recipient set for comm. No user appears
// twice even when several membership records match. An empty result is not
// an error; the caller decides whether that is acceptable.
func (r *Resolver) Resolve(ctx context.Context, comm *models.Communication) ([]models.User, error) {
	rule := RuleFor(comm)
	switch rule.Kind {
	case RuleHealthAlert:
		return r.resolveHealthAlert(ctx)
	case RuleCriteria:
		return r.resolveCriteria(ctx, rule.Criteria)
	case RuleLegacy:
		return r.resolveLegacy(ctx, rule)
	}
	return nil, nil
}

// resolveHealthAlert targets every user holding at least one active or
// expired membership, in any organization and any year, gated by the
// health-alerts flag.
func (r *Resolver) resolveHealthAlert(ctx context.Context) ([]models.User, error) {
	records, err := r.memberships.ByStatuses(ctx, []string{models.MembershipActive, models.MembershipExpired})
	if err != nil {
		return nil, err
	}

	// Dedupe by user before any lookups so a user with many membership
	// records is visited once.
	seen := make(map[primitive.ObjectID]struct{}, len(records))
	var result []models.User
	for _, m := range records {
		if _, dup := seen[m.UserID]; dup {
			continue
		}
		seen[m.UserID] = struct{}{}

		user, pref, err := r.lookup(ctx, m.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil || pref == nil {
			continue
		}
		if pref.HealthAlerts {
			result = append(result, *user)
		}
	}
	return result, nil
}

// resolveCriteria unions the matches of each {org, year, status} criterion.
// The own-organization flag gates inclusion for every criterion, including
// ones naming another organization; that mirrors long-standing behavior the
// association depends on.
func (r *Resolver) resolveCriteria(ctx context.Context, criteria []models.MembershipCriterion) ([]models.User, error) {
	included := make(map[primitive.ObjectID]struct{})
	var result []models.User

	for _, crit := range criteria {
		records, err := r.memberships.ByCriterion(ctx, crit)
		if err != nil {
			return nil, err
		}
		for _, m := range records {
			if _, dup := included[m.UserID]; dup {
				continue
			}
			user, pref, err := r.lookup(ctx, m.UserID)
			if err != nil {
				return nil, err
			}
			if user == nil || pref == nil {
				continue
			}
			if pref.OwnOrgCommunications {
				included[m.UserID] = struct{}{}
				result = append(result, *user)
			}
		}
	}
	return result, nil
}

// resolveLegacy handles the single-value audience field. The candidate pool
// is everyone with an active membership in the current calendar year; the
// audience value then decides which preference flag applies.
func (r *Resolver) resolveLegacy(ctx context.Context, rule Rule) ([]models.User, error) {
	records, err := r.memberships.ActiveInYear(ctx, r.now().UTC().Year())
	if err != nil {
		return nil, err
	}

	// An audience naming an organization by code targets that organization's
	// members regardless of which organization authored the communication.
	targetOrg := rule.OrgID
	if rule.Audience != "" && rule.Audience != models.AudienceOwnOrg && rule.Audience != models.AudienceAllOrgs {
		org, err := r.orgs.GetByCode(ctx, rule.Audience)
		if err == mongo.ErrNoDocuments {
			r.log.Warn("communication audience names unknown organization",
				zap.String("audience", rule.Audience))
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		targetOrg = org.ID
	}

	seen := make(map[primitive.ObjectID]struct{}, len(records))
	var result []models.User
	for _, m := range records {
		if _, dup := seen[m.UserID]; dup {
			continue
		}
		seen[m.UserID] = struct{}{}

		user, pref, err := r.lookup(ctx, m.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil || pref == nil {
			continue
		}

		include := false
		switch rule.Audience {
		case models.AudienceAllOrgs:
			if user.BelongsTo(rule.OrgID) {
				include = pref.OwnOrgCommunications
			} else {
				include = pref.OtherOrgCommunications
			}
		default:
			// own_org and org-code audiences both reduce to "belongs to the
			// target organization and accepts own-organization mail".
			include = user.BelongsTo(targetOrg) && pref.OwnOrgCommunications
		}
		if include {
			result = append(result, *user)
		}
	}
	return result, nil
}

// lookup fetches a candidate user and their preference document. A missing
// user is skipped with a warning (memberships can outlive accounts); a
// missing preference document returns pref == nil and excludes the user.
func (r *Resolver) lookup(ctx context.Context, userID primitive.ObjectID) (*models.User, *models.Preference, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err == mongo.ErrNoDocuments {
		r.log.Warn("membership references missing user", zap.String("user_id", userID.Hex()))
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	pref, err := r.prefs.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return &user, pref, nil
}

// Package resolver maps an authenticated user to exactly one wedding: it
// looks up the user's profile, consumes a pending invite addressed to their
// email, or bootstraps a brand-new wedding on first login. This is the only
// code that writes user profiles and member records.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/docstore"
	"github.com/davidadedeji/wedding-budget-tracker-v4/internal/models"
)

// Resolver resolves users to wedding ids against the document store.
type Resolver struct {
	store *docstore.Store
}

// New creates a Resolver over the given document store.
func New(store *docstore.Store) *Resolver {
	return &Resolver{store: store}
}

// SanitizeEmail converts an email address into a valid invite key by
// replacing every "." with ",". The rule is load-bearing: invites persist
// under these keys, so changing it would orphan existing records.
func SanitizeEmail(email string) string {
	return strings.ReplaceAll(email, ".", ",")
}

// Resolve returns the wedding id the user belongs to. A pending invite for
// the user's email always wins: it is consumed and re-points the user's
// profile even if they already belong to another wedding (auto-join; the
// previous wedding's data is untouched, just no longer linked). Otherwise
// an existing profile is returned as-is, and a first-time user gets a
// freshly bootstrapped wedding.
func (r *Resolver) Resolve(ctx context.Context, user *models.User) (string, error) {
	if weddingID, accepted, err := r.ConsumeInvite(ctx, user); err != nil {
		return "", err
	} else if accepted {
		return weddingID, nil
	}
	return r.ResolveWedding(ctx, user)
}

// ResolveWedding returns the wedding id from the user's profile, creating a
// new wedding if the user has none. The read path has no side effects; the
// bootstrap path issues its profile write conditionally, so if an invite
// acceptance lands first the invited wedding wins and the freshly seeded
// document is simply never linked.
func (r *Resolver) ResolveWedding(ctx context.Context, user *models.User) (string, error) {
	profilePath := "users/" + user.ID

	var profile models.UserProfile
	ok, err := r.store.Get(ctx, profilePath, &profile)
	if err != nil {
		return "", fmt.Errorf("failed to read profile for %s: %w", user.ID, err)
	}
	if ok && profile.WeddingID != "" {
		return profile.WeddingID, nil
	}

	// First login: seed a wedding with the default categories and link
	// the user as its owner.
	weddingID := uuid.New().String()
	now := time.Now().Unix()

	wedding := models.Wedding{
		Owner:        user.ID,
		CreatedAt:    now,
		TotalBudget:  models.DefaultTotalBudget,
		CostPerGuest: models.DefaultCostPerGuest,
		DarkMode:     false,
		Categories:   DefaultCategories(now),
		Members: map[string]models.Member{
			user.ID: {
				Email:    user.Email,
				Name:     user.DisplayName,
				Role:     models.RoleOwner,
				JoinedAt: now,
			},
		},
	}
	if err := r.store.Set(ctx, "weddings/"+weddingID, wedding); err != nil {
		return "", fmt.Errorf("failed to create wedding: %w", err)
	}

	wrote, err := r.store.SetIfAbsent(ctx, profilePath, models.UserProfile{
		WeddingID: weddingID,
		Email:     user.Email,
	})
	if err != nil {
		return "", fmt.Errorf("failed to write profile for %s: %w", user.ID, err)
	}
	if !wrote {
		// Lost the race to a concurrent invite acceptance; honor
		// whatever the profile now says.
		if _, err := r.store.Get(ctx, profilePath, &profile); err != nil {
			return "", fmt.Errorf("failed to re-read profile for %s: %w", user.ID, err)
		}
		return profile.WeddingID, nil
	}
	return weddingID, nil
}

// ConsumeInvite checks for a pending invite addressed to the user's email
// and, if one exists, joins them to the invited wedding: the profile is
// overwritten unconditionally, a partner member record is written, and the
// invite is deleted. Returns the invited wedding id and whether an invite
// was accepted.
func (r *Resolver) ConsumeInvite(ctx context.Context, user *models.User) (string, bool, error) {
	invitePath := "invites/" + SanitizeEmail(user.Email)

	var invite models.Invite
	ok, err := r.store.Get(ctx, invitePath, &invite)
	if err != nil {
		return "", false, fmt.Errorf("failed to read invite for %s: %w", user.Email, err)
	}
	if !ok || invite.WeddingID == "" {
		return "", false, nil
	}

	if err := r.store.Set(ctx, "users/"+user.ID, models.UserProfile{
		WeddingID: invite.WeddingID,
		Email:     user.Email,
	}); err != nil {
		return "", false, fmt.Errorf("failed to re-point profile for %s: %w", user.ID, err)
	}

	if err := r.store.Set(ctx, "weddings/"+invite.WeddingID+"/members/"+user.ID, models.Member{
		Email:    user.Email,
		Name:     user.DisplayName,
		Role:     models.RolePartner,
		JoinedAt: time.Now().Unix(),
	}); err != nil {
		return "", false, fmt.Errorf("failed to write member record: %w", err)
	}

	if err := r.store.Delete(ctx, invitePath); err != nil {
		return "", false, fmt.Errorf("failed to consume invite: %w", err)
	}
	return invite.WeddingID, true, nil
}

// SendInvite creates a pending invite addressed to targetEmail. It
// overwrites any previous invite for that email; the most recent invite is
// the one that gets accepted.
func (r *Resolver) SendInvite(ctx context.Context, weddingID, inviterEmail, targetEmail string) error {
	if targetEmail == "" {
		return fmt.Errorf("invite target email required")
	}
	return r.store.Set(ctx, "invites/"+SanitizeEmail(targetEmail), models.Invite{
		WeddingID: weddingID,
		InvitedBy: inviterEmail,
		InvitedAt: time.Now().Unix(),
	})
}

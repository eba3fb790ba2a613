package models

// Invite is a pending offer to join a Wedding, keyed in the document store
// by the invitee's sanitized email (the inviter does not know the invitee's
// user id, and may send the invite before the invitee has an account).
// An Invite is consumed and deleted exactly once, at the moment the invited
// email's owner authenticates.
type Invite struct {
	// WeddingID is the wedding the invitee will join.
	WeddingID string `json:"weddingId"`

	// InvitedBy is the email of the member who sent the invite.
	InvitedBy string `json:"invitedBy"`

	// InvitedAt is the Unix timestamp when the invite was sent.
	InvitedAt int64 `json:"invitedAt"`
}

// UserProfile is the per-user record mapping a user id to the Wedding they
// belong to. Created on first login, re-pointed on invite acceptance, never
// deleted.
type UserProfile struct {
	WeddingID string `json:"weddingId"`
	Email     string `json:"email"`
}

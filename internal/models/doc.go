// Package models defines the core domain models for the wedding budget
// tracker.
//
// # Models
//
//   - Wedding: the shared budget document a couple collaborates on
//   - Category, Expense, Guest, Vendor: the collections inside a Wedding
//   - Member: a user linked to a Wedding, with an owner or partner role
//   - Invite: a pending, email-keyed offer to join a Wedding
//   - UserProfile: maps a user id to the Wedding they belong to
//   - User: a registered account (credentials live here, not in the Wedding)
//
// # Design Principles
//
// 1. **One document per wedding**: everything a couple shares lives under a
// single Wedding value, replaced wholesale on every snapshot rather than
// mutated field by field.
// 2. **IDs over pointers**: relationships are ID strings (an Expense holds a
// category id), never pointers, so a document round-trips through JSON
// without cycles.
// 3. **Tolerant references**: an Expense may reference a Category that has
// since been deleted. Consumers fall back to the raw id and keep going.
package models

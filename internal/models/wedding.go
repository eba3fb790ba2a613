package models

// Expense payment statuses.
const (
	StatusUnpaid = "unpaid"
	StatusPaid   = "paid"
)

// Guest RSVP statuses.
const (
	RSVPPending   = "pending"
	RSVPConfirmed = "confirmed"
	RSVPDeclined  = "declined"
)

// Member roles.
const (
	RoleOwner   = "owner"
	RolePartner = "partner"
)

// Defaults applied when a wedding is created and when a stored document is
// missing the field.
const (
	DefaultTotalBudget  = 30000
	DefaultCostPerGuest = 75
)

// Wedding is the shared budget document. Exactly one Wedding exists per
// couple; both members read and write the same document and receive
// snapshots of it as it changes.
type Wedding struct {
	// Owner is the user id of the member who created the wedding.
	Owner string `json:"owner"`

	// CreatedAt is the Unix timestamp when the wedding was created.
	CreatedAt int64 `json:"createdAt"`

	// TotalBudget is the overall budget for the wedding.
	TotalBudget float64 `json:"totalBudget"`

	// CostPerGuest is the estimated per-head cost used for guest planning.
	CostPerGuest float64 `json:"costPerGuest"`

	// DarkMode is the couple's shared theme preference.
	DarkMode bool `json:"darkMode"`

	Categories map[string]Category `json:"categories,omitempty"`
	Expenses   map[string]Expense  `json:"expenses,omitempty"`
	Guests     map[string]Guest    `json:"guests,omitempty"`
	Vendors    map[string]Vendor   `json:"vendors,omitempty"`

	// Members is keyed by user id. A user may read or write this wedding
	// only if a Member record for their id exists here.
	Members map[string]Member `json:"members,omitempty"`
}

// Category is a spending bucket such as "Venue" or "Catering".
type Category struct {
	// ID is a stable slug, injected from the document key when the
	// categories mapping is normalized into a list.
	ID string `json:"id,omitempty"`

	// Name is the display name.
	Name string `json:"name"`

	// Icon is a decorative glyph shown next to the name.
	Icon string `json:"icon"`

	// Budget is the planned amount for this category. Zero means unset.
	Budget float64 `json:"budget"`

	// CreatedAt is the Unix timestamp when the category was added.
	CreatedAt int64 `json:"createdAt"`
}

// Expense is a single itemized cost, assigned to one category by id.
type Expense struct {
	// ID is injected from the document key during normalization.
	ID string `json:"id,omitempty"`

	// Category is the id of the Category this expense belongs to. The
	// category may no longer exist; display falls back to the raw id.
	Category string `json:"category"`

	// Description is the human-readable label. Never empty for expenses
	// created through the API.
	Description string `json:"description"`

	// Vendor is the name of the vendor charged, optional.
	Vendor string `json:"vendor,omitempty"`

	// Amount is the expense amount. Missing or invalid amounts are
	// treated as zero by downstream arithmetic.
	Amount float64 `json:"amount"`

	// Status is StatusUnpaid or StatusPaid.
	Status string `json:"status"`

	// Date is an ISO calendar date string (YYYY-MM-DD), optional. It is
	// compared lexicographically when sorting, not parsed.
	Date string `json:"date,omitempty"`

	// CreatedBy is the email of the member who added the expense.
	CreatedBy string `json:"createdBy,omitempty"`

	// CreatedAt is the Unix timestamp when the expense was added.
	CreatedAt int64 `json:"createdAt"`
}

// Guest is one entry on the guest list.
type Guest struct {
	// ID is injected from the document key during normalization.
	ID string `json:"id,omitempty"`

	Name string `json:"name"`

	// Status is RSVPPending, RSVPConfirmed or RSVPDeclined.
	Status string `json:"status"`

	CreatedAt int64 `json:"createdAt"`
}

// Vendor is a contact in the couple's vendor book. Vendors are added and
// removed whole; there is no update-in-place.
type Vendor struct {
	// ID is injected from the document key during normalization.
	ID string `json:"id,omitempty"`

	Name string `json:"name"`

	// Category is a free-text label ("Florist", "Band"), not a Category id.
	Category string `json:"category,omitempty"`

	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	Notes string `json:"notes,omitempty"`

	CreatedAt int64 `json:"createdAt"`
}

// Member links a user to a Wedding. Member records are written once, when
// the user creates the wedding or accepts an invite, and never removed.
type Member struct {
	// UID is the user id, injected from the document key during
	// normalization.
	UID string `json:"uid,omitempty"`

	Email string `json:"email"`
	Name  string `json:"name,omitempty"`

	// Role is RoleOwner for the creating member, RolePartner for anyone
	// who joined through an invite.
	Role string `json:"role"`

	// JoinedAt is the Unix timestamp when the member was linked.
	JoinedAt int64 `json:"joinedAt"`
}

// Package accounts defines the multi-tenant organization, user and
// invitation records.
package accounts

import "time"

// Plan names and their member ceilings.
const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// MaxMembersForPlan returns the member ceiling for a plan.
func MaxMembersForPlan(plan string) int {
	switch plan {
	case PlanPro:
		return 25
	case PlanEnterprise:
		return 1000
	default:
		return 5
	}
}

// Organization is a tenant.
type Organization struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Plan       string              `json:"plan"`
	MaxMembers int                 `json:"max_members"`
	Billing    OrganizationBilling `json:"billing"`
	Settings   OrganizationConfig  `json:"settings"`
	CreatedAt  int64               `json:"created_at"`
	UpdatedAt  int64               `json:"updated_at"`
}

// OrganizationBilling is the billing block of an organization record.
type OrganizationBilling struct {
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	NextBillDate string `json:"next_bill_date,omitempty"`
}

// OrganizationConfig holds tenant-level preferences.
type OrganizationConfig struct {
	Timezone      string `json:"timezone"`
	Language      string `json:"language"`
	Notifications bool   `json:"notifications"`
}

// User roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// User is a member of an organization, keyed by (email, organization).
type User struct {
	Email          string `json:"email"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	Status         string `json:"status"`
	PasswordHash   string `json:"-"`
	CreatedAt      int64  `json:"created_at"`
	LastLoginAt    int64  `json:"last_login_at,omitempty"`
	UpdatedAt      int64  `json:"updated_at"`
}

// Invitation statuses.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRevoked  = "revoked"
)

// InvitationTTL is how long an invitation stays redeemable.
const InvitationTTL = 7 * 24 * time.Hour

// Invitation is a pending offer to join an organization.
type Invitation struct {
	OrganizationID string `json:"organization_id"`
	InvitationID   string `json:"invitation_id"`
	InvitedEmail   string `json:"invited_email"`
	InvitedBy      string `json:"invited_by"`
	Role           string `json:"role"`
	Token          string `json:"token"`
	Status         string `json:"status"`
	CreatedAt      int64  `json:"created_at"`
	ExpiresAt      int64  `json:"expires_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

// Expired reports whether the invitation is past its redeem-by time.
func (i Invitation) Expired(now time.Time) bool {
	return i.ExpiresAt < now.Unix()
}

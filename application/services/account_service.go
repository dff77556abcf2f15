package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"devinsights-backend/domain/accounts"
	"devinsights-backend/pkg/auth"
	apperrors "devinsights-backend/pkg/errors"
)

// OrganizationStore persists organizations.
type OrganizationStore interface {
	Save(ctx context.Context, org *accounts.Organization) error
	FindByID(ctx context.Context, organizationID string) (*accounts.Organization, error)
}

// UserStore persists users.
type UserStore interface {
	Save(ctx context.Context, user *accounts.User) error
	FindByEmail(ctx context.Context, email string) (*accounts.User, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*accounts.User, error)
}

// InvitationStore persists invitations.
type InvitationStore interface {
	Save(ctx context.Context, inv *accounts.Invitation) error
	FindByID(ctx context.Context, organizationID, invitationID string) (*accounts.Invitation, error)
	FindByToken(ctx context.Context, token string) (*accounts.Invitation, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*accounts.Invitation, error)
}

// Session is a logged-in identity plus its bearer tokens.
type Session struct {
	Token        string                 `json:"token"`
	RefreshToken string                 `json:"refresh_token"`
	User         *accounts.User         `json:"user"`
	Organization *accounts.Organization `json:"organization,omitempty"`
}

// AccountService handles signup, login and team membership.
type AccountService struct {
	orgs        OrganizationStore
	users       UserStore
	invitations InvitationStore
	jwt         *auth.JWTManager
	logger      *zap.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(orgs OrganizationStore, users UserStore, invitations InvitationStore, jwt *auth.JWTManager, logger *zap.Logger) *AccountService {
	return &AccountService{
		orgs:        orgs,
		users:       users,
		invitations: invitations,
		jwt:         jwt,
		logger:      logger,
	}
}

// SignUp creates a new organization with its first admin user and logs
// them in.
func (s *AccountService) SignUp(ctx context.Context, orgName, userName, email, password string) (*Session, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewDatabaseError("find user", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password").WithCause(err)
	}

	now := time.Now()
	org := &accounts.Organization{
		ID:         uuid.NewString(),
		Name:       orgName,
		Plan:       accounts.PlanFree,
		MaxMembers: accounts.MaxMembersForPlan(accounts.PlanFree),
		Billing: accounts.OrganizationBilling{
			Status:    "active",
			CreatedAt: now.UTC().Format(time.RFC3339),
		},
		Settings: accounts.OrganizationConfig{
			Timezone:      "UTC",
			Language:      "en",
			Notifications: true,
		},
		CreatedAt: now.UnixMilli(),
		UpdatedAt: now.UnixMilli(),
	}
	if err := s.orgs.Save(ctx, org); err != nil {
		return nil, apperrors.NewDatabaseError("save organization", err)
	}

	user := &accounts.User{
		Email:          email,
		OrganizationID: org.ID,
		Name:           userName,
		Role:           accounts.RoleAdmin,
		Status:         "active",
		PasswordHash:   string(hash),
		CreatedAt:      now.UnixMilli(),
		UpdatedAt:      now.UnixMilli(),
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, apperrors.NewDatabaseError("save user", err)
	}

	s.logger.Info("organization created",
		zap.String("organization_id", org.ID),
		zap.String("admin", email),
	)
	return s.newSession(user, org)
}

// Login authenticates a user by email and password.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewDatabaseError("find user", err)
	}
	if user == nil {
		return nil, apperrors.NewUnauthorizedError("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid email or password")
	}

	user.LastLoginAt = time.Now().UnixMilli()
	if err := s.users.Save(ctx, user); err != nil {
		s.logger.Warn("failed to record login time",
			zap.String("email", email),
			zap.Error(err),
		)
	}

	org, err := s.orgs.FindByID(ctx, user.OrganizationID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("find organization", err)
	}
	return s.newSession(user, org)
}

func (s *AccountService) newSession(user *accounts.User, org *accounts.Organization) (*Session, error) {
	token, err := s.jwt.Issue(user.Email, user.Email, user.OrganizationID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue token").WithCause(err)
	}
	refresh, err := s.jwt.IssueRefresh(user.Email, user.Email, user.OrganizationID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue refresh token").WithCause(err)
	}
	return &Session{Token: token, RefreshToken: refresh, User: user, Organization: org}, nil
}

// Refresh exchanges a valid refresh token for a fresh session. The user is
// reloaded so revoked accounts or changed roles take effect immediately.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.jwt.Validate(refreshToken)
	if err != nil || claims.TokenType != auth.TokenTypeRefresh {
		return nil, apperrors.NewUnauthorizedError("invalid refresh token")
	}

	user, err := s.users.FindByEmail(ctx, claims.Email)
	if err != nil {
		return nil, apperrors.NewDatabaseError("find user", err)
	}
	if user == nil {
		return nil, apperrors.NewUnauthorizedError("invalid refresh token")
	}

	org, err := s.orgs.FindByID(ctx, user.OrganizationID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("find organization", err)
	}
	return s.newSession(user, org)
}

// GetProfile returns the user and organization behind an email.
func (s *AccountService) GetProfile(ctx context.Context, email string) (*accounts.User, *accounts.Organization, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, apperrors.NewDatabaseError("find user", err)
	}
	if user == nil {
		return nil, nil, apperrors.NewNotFoundError("user")
	}
	org, err := s.orgs.FindByID(ctx, user.OrganizationID)
	if err != nil {
		return nil, nil, apperrors.NewDatabaseError("find organization", err)
	}
	return user, org, nil
}

// InviteMember creates a pending invitation, enforcing the plan's member
// ceiling across current members and open invitations.
func (s *AccountService) InviteMember(ctx context.Context, organizationID, invitedBy, email, role string) (*accounts.Invitation, error) {
	org, err := s.orgs.FindByID(ctx, organizationID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("find organization", err)
	}
	if org == nil {
		return nil, apperrors.NewNotFoundError("organization")
	}

	if role != accounts.RoleAdmin && role != accounts.RoleMember && role != accounts.RoleViewer {
		return nil, apperrors.NewValidationError("invalid role")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewDatabaseError("find user", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("user already has an account")
	}

	members, err := s.users.ListByOrganization(ctx, organizationID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list members", err)
	}
	pending, err := s.pendingInvitations(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if len(members)+len(pending) >= org.MaxMembers {
		return nil, apperrors.NewConflictError("organization member limit reached").
			WithDetails(map[string]interface{}{"plan": org.Plan, "max_members": org.MaxMembers})
	}
	for _, inv := range pending {
		if inv.InvitedEmail == email {
			return nil, apperrors.NewConflictError("an invitation for this email is already pending")
		}
	}

	now := time.Now()
	invitation := &accounts.Invitation{
		OrganizationID: organizationID,
		InvitationID:   uuid.NewString(),
		InvitedEmail:   email,
		InvitedBy:      invitedBy,
		Role:           role,
		Token:          uuid.NewString(),
		Status:         accounts.InvitationPending,
		CreatedAt:      now.UnixMilli(),
		ExpiresAt:      now.Add(accounts.InvitationTTL).Unix(),
		UpdatedAt:      now.UnixMilli(),
	}
	if err := s.invitations.Save(ctx, invitation); err != nil {
		return nil, apperrors.NewDatabaseError("save invitation", err)
	}

	s.logger.Info("invitation created",
		zap.String("organization_id", organizationID),
		zap.String("invited_email", email),
	)
	return invitation, nil
}

func (s *AccountService) pendingInvitations(ctx context.Context, organizationID string) ([]*accounts.Invitation, error) {
	all, err := s.invitations.ListByOrganization(ctx, organizationID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list invitations", err)
	}
	now := time.Now()
	pending := make([]*accounts.Invitation, 0, len(all))
	for _, inv := range all {
		if inv.Status == accounts.InvitationPending && !inv.Expired(now) {
			pending = append(pending, inv)
		}
	}
	return pending, nil
}

// AcceptInvitation redeems an invitation token and creates the member.
func (s *AccountService) AcceptInvitation(ctx context.Context, token, userName, password string) (*Session, error) {
	invitation, err := s.invitations.FindByToken(ctx, token)
	if err != nil {
		return nil, apperrors.NewDatabaseError("find invitation", err)
	}
	if invitation == nil {
		return nil, apperrors.NewNotFoundError("invitation")
	}
	if invitation.Status != accounts.InvitationPending {
		return nil, apperrors.NewConflictError("invitation is no longer open")
	}
	if invitation.Expired(time.Now()) {
		return nil, apperrors.NewConflictError("invitation has expired")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password").WithCause(err)
	}

	now := time.Now()
	user := &accounts.User{
		Email:          invitation.InvitedEmail,
		OrganizationID: invitation.OrganizationID,
		Name:           userName,
		Role:           invitation.Role,
		Status:         "active",
		PasswordHash:   string(hash),
		CreatedAt:      now.UnixMilli(),
		UpdatedAt:      now.UnixMilli(),
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, apperrors.NewDatabaseError("save user", err)
	}

	invitation.Status = accounts.InvitationAccepted
	invitation.UpdatedAt = now.UnixMilli()
	if err := s.invitations.Save(ctx, invitation); err != nil {
		s.logger.Warn("failed to mark invitation accepted",
			zap.String("invitation_id", invitation.InvitationID),
			zap.Error(err),
		)
	}

	org, err := s.orgs.FindByID(ctx, invitation.OrganizationID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("find organization", err)
	}
	return s.newSession(user, org)
}

// ListMembers returns an organization's users.
func (s *AccountService) ListMembers(ctx context.Context, organizationID string) ([]*accounts.User, error) {
	members, err := s.users.ListByOrganization(ctx, organizationID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list members", err)
	}
	return members, nil
}

// ListInvitations returns an organization's open invitations.
func (s *AccountService) ListInvitations(ctx context.Context, organizationID string) ([]*accounts.Invitation, error) {
	return s.pendingInvitations(ctx, organizationID)
}

// RevokeInvitation withdraws a pending invitation.
func (s *AccountService) RevokeInvitation(ctx context.Context, organizationID, invitationID string) error {
	invitation, err := s.invitations.FindByID(ctx, organizationID, invitationID)
	if err != nil {
		return apperrors.NewDatabaseError("find invitation", err)
	}
	if invitation == nil {
		return apperrors.NewNotFoundError("invitation")
	}
	if invitation.Status != accounts.InvitationPending {
		return apperrors.NewConflictError("only pending invitations can be revoked")
	}

	invitation.Status = accounts.InvitationRevoked
	invitation.UpdatedAt = time.Now().UnixMilli()
	if err := s.invitations.Save(ctx, invitation); err != nil {
		return apperrors.NewDatabaseError("save invitation", err)
	}
	return nil
}

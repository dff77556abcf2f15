package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"devinsights-backend/domain/accounts"
	"devinsights-backend/infrastructure/identity"
	"devinsights-backend/pkg/auth"
	apperrors "devinsights-backend/pkg/errors"
)

func newAccountService(t *testing.T) *AccountService {
	t.Helper()
	jwt := auth.NewJWTManager("test-secret", "devinsights-test", time.Hour)
	return NewAccountService(
		identity.NewMemoryOrganizationStore(),
		identity.NewMemoryUserStore(),
		identity.NewMemoryInvitationStore(),
		jwt,
		zap.NewNop(),
	)
}

func TestSignUpAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAccountService(t)

	session, err := svc.SignUp(ctx, "Acme", "Alice", "alice@acme.test", "s3cret-pw")
	require.NoError(t, err)
	require.NotNil(t, session.Organization)
	assert.Equal(t, accounts.RoleAdmin, session.User.Role)
	assert.Equal(t, accounts.PlanFree, session.Organization.Plan)
	assert.NotEmpty(t, session.Token)

	login, err := svc.Login(ctx, "alice@acme.test", "s3cret-pw")
	require.NoError(t, err)
	assert.Equal(t, session.Organization.ID, login.User.OrganizationID)
	assert.NotZero(t, login.User.LastLoginAt)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newAccountService(t)

	_, err := svc.SignUp(ctx, "Acme", "Alice", "alice@acme.test", "pw-one-two")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "Other", "Alice", "alice@acme.test", "pw-one-two")
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	svc := newAccountService(t)

	_, err := svc.SignUp(ctx, "Acme", "Alice", "alice@acme.test", "right-pw")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice@acme.test", "wrong-pw")
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeUnauthorized, appErr.Type)
}

func TestInviteAndAccept(t *testing.T) {
	ctx := context.Background()
	svc := newAccountService(t)

	admin, err := svc.SignUp(ctx, "Acme", "Alice", "alice@acme.test", "s3cret-pw")
	require.NoError(t, err)
	orgID := admin.Organization.ID

	invitation, err := svc.InviteMember(ctx, orgID, "alice@acme.test", "bob@acme.test", accounts.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, accounts.InvitationPending, invitation.Status)
	assert.NotEmpty(t, invitation.Token)

	open, err := svc.ListInvitations(ctx, orgID)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	session, err := svc.AcceptInvitation(ctx, invitation.Token, "Bob", "bob-pw-123")
	require.NoError(t, err)
	assert.Equal(t, accounts.RoleMember, session.User.Role)
	assert.Equal(t, orgID, session.User.OrganizationID)

	members, err := svc.ListMembers(ctx, orgID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	// Accepted invitations no longer show up as open.
	open, err = svc.ListInvitations(ctx, orgID)
	require.NoError(t, err)
	assert.Empty(t, open)

	// A redeemed token cannot be reused.
	_, err = svc.AcceptInvitation(ctx, invitation.Token, "Mallory", "mallory-pw")
	assert.Error(t, err)
}

func TestInviteMember_PlanCeiling(t *testing.T) {
	ctx := context.Background()
	svc := newAccountService(t)

	admin, err := svc.SignUp(ctx, "Acme", "Alice", "alice@acme.test", "s3cret-pw")
	require.NoError(t, err)
	orgID := admin.Organization.ID

	// Free plan allows 5 members; the admin occupies one slot.
	for i := 0; i < 4; i++ {
		email := string(rune('b'+i)) + "@acme.test"
		_, err := svc.InviteMember(ctx, orgID, "alice@acme.test", email, accounts.RoleMember)
		require.NoError(t, err)
	}

	_, err = svc.InviteMember(ctx, orgID, "alice@acme.test", "late@acme.test", accounts.RoleMember)
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
}

func TestRevokeInvitation(t *testing.T) {
	ctx := context.Background()
	svc := newAccountService(t)

	admin, err := svc.SignUp(ctx, "Acme", "Alice", "alice@acme.test", "s3cret-pw")
	require.NoError(t, err)
	orgID := admin.Organization.ID

	invitation, err := svc.InviteMember(ctx, orgID, "alice@acme.test", "bob@acme.test", accounts.RoleMember)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeInvitation(ctx, orgID, invitation.InvitationID))

	// Revoked invitations cannot be redeemed.
	_, err = svc.AcceptInvitation(ctx, invitation.Token, "Bob", "bob-pw-123")
	assert.Error(t, err)
}

func TestInviteMember_InvalidRole(t *testing.T) {
	ctx := context.Background()
	svc := newAccountService(t)

	admin, err := svc.SignUp(ctx, "Acme", "Alice", "alice@acme.test", "s3cret-pw")
	require.NoError(t, err)

	_, err = svc.InviteMember(ctx, admin.Organization.ID, "alice@acme.test", "bob@acme.test", "owner")
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
}

func TestRefreshSession(t *testing.T) {
	ctx := context.Background()
	svc := newAccountService(t)

	session, err := svc.SignUp(ctx, "Acme", "Alice", "alice@acme.test", "s3cret-pw")
	require.NoError(t, err)
	require.NotEmpty(t, session.RefreshToken)

	renewed, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@acme.test", renewed.User.Email)
	assert.NotEmpty(t, renewed.Token)
	assert.NotEmpty(t, renewed.RefreshToken)

	// An access token is not accepted as a refresh token.
	_, err = svc.Refresh(ctx, session.Token)
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeUnauthorized, appErr.Type)
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	svc := newAccountService(t)

	_, err := svc.SignUp(ctx, "Acme", "Alice", "alice@acme.test", "s3cret-pw")
	require.NoError(t, err)

	user, org, err := svc.GetProfile(ctx, "alice@acme.test")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	require.NotNil(t, org)
	assert.Equal(t, "Acme", org.Name)

	_, _, err = svc.GetProfile(ctx, "nobody@acme.test")
	require.Error(t, err)
}

package invitationsrv_test

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/hireline/pkg/iam/invitation"
	"github.com/Abraxas-365/hireline/pkg/iam/invitation/invitationinfra"
	"github.com/Abraxas-365/hireline/pkg/iam/invitation/invitationsrv"
	"github.com/Abraxas-365/hireline/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/hireline/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup() (*invitationsrv.InvitationService, *invitationinfra.MemoryInvitationRepository) {
	users := userinfra.NewMemoryUserRepository()
	userSvc := usersrv.NewUserService(users, authinfra.NewBcryptPasswordService(4), 8)
	repo := invitationinfra.NewMemoryInvitationRepository()
	svc := invitationsrv.NewInvitationService(repo, users, userSvc, &config.InvitationConfig{
		DefaultExpirationDays: 7,
		TokenByteLength:       16,
		AcceptURL:             "http://app/accept",
	})
	return svc, repo
}

func TestCreateAndAcceptInvitation(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	created, err := svc.CreateInvitation(ctx, "admin-1", invitation.CreateInvitationRequest{
		Email: "Vendor@Agency.in",
		Role:  kernel.RolePartner,
		Links: kernel.Links{PartnerID: "partner-9"},
	})
	require.NoError(t, err)
	assert.Len(t, created.Token, 32)
	assert.Equal(t, "http://app/accept?token="+created.Token, created.AcceptURL)
	assert.Equal(t, "vendor@agency.in", created.Email)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), created.ExpiresAt, time.Minute)

	v := svc.ValidateInvitationToken(ctx, created.Token)
	assert.True(t, v.Valid)

	u, err := svc.AcceptInvitation(ctx, invitation.AcceptInvitationRequest{
		Token:    created.Token,
		Name:     "Vendor Co",
		Password: "partner-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, kernel.RolePartner, u.Role)
	assert.Equal(t, "partner-9", u.PartnerID)

	_, err = svc.AcceptInvitation(ctx, invitation.AcceptInvitationRequest{Token: created.Token, Name: "Again", Password: "partner-pass"})
	assert.True(t, errx.IsCode(err, invitation.CodeInvitationAlreadyAccepted))

	// the email now belongs to a user
	_, err = svc.CreateInvitation(ctx, "admin-1", invitation.CreateInvitationRequest{
		Email: "vendor@agency.in",
		Role:  kernel.RolePartner,
		Links: kernel.Links{PartnerID: "partner-9"},
	})
	assert.True(t, errx.IsCode(err, invitation.CodeUserAlreadyExists))
}

func TestCreateInvitation_Validation(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	_, err := svc.CreateInvitation(ctx, "admin-1", invitation.CreateInvitationRequest{Email: "a@b.c", Role: "BOSS"})
	assert.True(t, errx.IsCode(err, iam.CodeInvalidRole))

	_, err = svc.CreateInvitation(ctx, "admin-1", invitation.CreateInvitationRequest{Email: "a@b.c", Role: kernel.RoleSupervisor})
	assert.True(t, errx.IsCode(err, iam.CodeMissingRoleLink))

	_, err = svc.CreateInvitation(ctx, "admin-1", invitation.CreateInvitationRequest{Email: "a@b.c", Role: kernel.RoleHR})
	require.NoError(t, err)
	_, err = svc.CreateInvitation(ctx, "admin-1", invitation.CreateInvitationRequest{Email: "a@b.c", Role: kernel.RoleHR})
	assert.True(t, errx.IsCode(err, invitation.CodeInvitationAlreadyExists))
}

func TestRevokeAndExpire(t *testing.T) {
	svc, repo := setup()
	ctx := context.Background()

	created, err := svc.CreateInvitation(ctx, "admin-1", invitation.CreateInvitationRequest{Email: "x@y.z", Role: kernel.RoleTeam})
	require.NoError(t, err)
	require.NoError(t, svc.RevokeInvitation(ctx, created.ID))
	assert.True(t, errx.IsCode(svc.RevokeInvitation(ctx, created.ID), invitation.CodeInvitationAlreadyRevoked))
	assert.False(t, svc.ValidateInvitationToken(ctx, created.Token).Valid)

	stale, err := svc.CreateInvitation(ctx, "admin-1", invitation.CreateInvitationRequest{Email: "old@y.z", Role: kernel.RoleTeam})
	require.NoError(t, err)
	inv, err := repo.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	inv.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Save(ctx, *inv))

	n, err := svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.GetInvitation(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, invitation.InvitationStatusExpired, got.Status)

	_, err = svc.AcceptInvitation(ctx, invitation.AcceptInvitationRequest{Token: stale.Token, Name: "Late", Password: "late-pass1"})
	assert.True(t, errx.IsCode(err, invitation.CodeInvitationExpired))
}

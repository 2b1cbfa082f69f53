package usersrv_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/hireline/pkg/iam/user"
	"github.com/Abraxas-365/hireline/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/hireline/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/hireline/pkg/kernel"
	"github.com/Abraxas-365/hireline/pkg/ptrx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *usersrv.UserService {
	return usersrv.NewUserService(userinfra.NewMemoryUserRepository(), authinfra.NewBcryptPasswordService(4), 8)
}

func TestCreateUser(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, user.CreateUserRequest{Email: " Lead@Hire.IN ", Name: "Lead", Password: "password1", Role: kernel.RoleTeamLead})
	require.NoError(t, err)
	assert.Equal(t, "lead@hire.in", u.Email)
	assert.True(t, u.IsActive())
	assert.NotEqual(t, "password1", u.PasswordHash)

	_, err = svc.CreateUser(ctx, user.CreateUserRequest{Email: "lead@hire.in", Name: "Dup", Password: "password1", Role: kernel.RoleTeam})
	assert.True(t, errx.IsCode(err, user.CodeUserAlreadyExists))

	_, err = svc.CreateUser(ctx, user.CreateUserRequest{Email: "w@hire.in", Name: "Weak", Password: "short", Role: kernel.RoleTeam})
	assert.True(t, errx.IsCode(err, iam.CodeWeakPassword))

	_, err = svc.CreateUser(ctx, user.CreateUserRequest{Email: "c@hire.in", Name: "Cand", Password: "password1", Role: kernel.RoleCandidate})
	assert.True(t, errx.IsCode(err, iam.CodeMissingRoleLink))
}

func TestTeamMemberIDs(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	lead, err := svc.CreateUser(ctx, user.CreateUserRequest{Email: "lead@hire.in", Name: "Lead", Password: "password1", Role: kernel.RoleTeamLead})
	require.NoError(t, err)
	member, err := svc.CreateUser(ctx, user.CreateUserRequest{
		Email: "m@hire.in", Name: "Member", Password: "password1", Role: kernel.RoleTeam,
		Links: kernel.Links{TeamLeadID: lead.ID.String()},
	})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, user.CreateUserRequest{Email: "o@hire.in", Name: "Other", Password: "password1", Role: kernel.RoleTeam})
	require.NoError(t, err)

	ids, err := svc.TeamMemberIDs(ctx, lead.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{lead.ID.String(), member.ID.String()}, ids)
}

func TestSuspendActivateUpdate(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, user.CreateUserRequest{Email: "s@hire.in", Name: "Sup", Password: "password1", Role: kernel.RoleSupervisor, Links: kernel.Links{StoreID: "store-1"}})
	require.NoError(t, err)

	_, err = svc.SuspendUser(ctx, u.ID, u.ID)
	assert.True(t, errx.IsCode(err, user.CodeSelfSuspension))

	suspended, err := svc.SuspendUser(ctx, u.ID, "admin")
	require.NoError(t, err)
	assert.False(t, suspended.IsActive())

	active, err := svc.ActivateUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, active.IsActive())

	_, err = svc.ActivateUser(ctx, u.ID)
	assert.True(t, errx.IsCode(err, user.CodeInvalidStatus))

	updated, err := svc.UpdateUser(ctx, u.ID, user.UpdateUserRequest{Name: ptrx.String("Supervisor Two"), Links: &kernel.Links{StoreID: "store-2"}})
	require.NoError(t, err)
	assert.Equal(t, "Supervisor Two", updated.Name)
	assert.Equal(t, "store-2", updated.StoreID)

	// supervisors cannot lose their store
	_, err = svc.UpdateUser(ctx, u.ID, user.UpdateUserRequest{Links: &kernel.Links{}})
	assert.True(t, errx.IsCode(err, iam.CodeMissingRoleLink))
}

func TestGetRoleScopes(t *testing.T) {
	svc := newService()

	resp, err := svc.GetRoleScopes(kernel.RoleSupervisor)
	require.NoError(t, err)
	assert.Contains(t, resp.Scopes, "attendance:mark")
	assert.Len(t, resp.ScopeDetails, len(resp.Scopes))
	assert.Contains(t, resp.Effective, "attendance:mark")
	assert.NotContains(t, resp.Effective, "payroll:run")

	_, err = svc.GetRoleScopes("NOPE")
	assert.True(t, errx.IsCode(err, iam.CodeInvalidRole))
}

package authinfra_test

import (
	"strings"
	"testing"

	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/iam"
	"github.com/Abraxas-365/hireline/pkg/iam/auth/authinfra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHashAndVerify(t *testing.T) {
	svc := authinfra.NewBcryptPasswordService(4)

	hash, err := svc.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, svc.VerifyPassword(hash, "s3cret-pass"))
	assert.False(t, svc.VerifyPassword(hash, "wrong-pass"))
	assert.False(t, svc.VerifyPassword("not-a-hash", "s3cret-pass"))
}

func TestBcryptRejectsOverlongPassword(t *testing.T) {
	svc := authinfra.NewBcryptPasswordService(4)

	_, err := svc.HashPassword(strings.Repeat("a", 73))
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, iam.CodeWeakPassword))
}

func TestBcryptNeedsRehashOnCostChange(t *testing.T) {
	low := authinfra.NewBcryptPasswordService(4)
	high := authinfra.NewBcryptPasswordService(5)

	hash, err := low.HashPassword("s3cret-pass")
	require.NoError(t, err)

	assert.False(t, low.NeedsRehash(hash))
	assert.True(t, high.NeedsRehash(hash))
	assert.False(t, high.NeedsRehash("garbage"))
}

func TestBcryptClampsCost(t *testing.T) {
	// costs below bcrypt.MinCost hash like MinCost
	tiny := authinfra.NewBcryptPasswordService(1)
	floor := authinfra.NewBcryptPasswordService(4)

	hash, err := tiny.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.False(t, floor.NeedsRehash(hash))
}

package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_OrderedAndComplete(t *testing.T) {
	all, err := All()
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, "0001_iam", all[0].Version)
	assert.Equal(t, "0002_documents", all[1].Version)

	for _, table := range []string{"users", "refresh_tokens", "invitations"} {
		assert.True(t, strings.Contains(all[0].SQL, "CREATE TABLE IF NOT EXISTS "+table+" ("), table)
	}
	assert.Contains(t, all[1].SQL, "PRIMARY KEY (collection, id)")
}

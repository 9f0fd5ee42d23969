package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_TokenLifecycle(t *testing.T) {
	s := NewStoreWithKeyring(keyring.NewArrayKeyring(nil))

	tok, err := s.APIToken()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.Set(APITokenKey, "secret"))
	tok, err = s.APIToken()
	require.NoError(t, err)
	assert.Equal(t, "secret", tok)

	require.NoError(t, s.Delete(APITokenKey))
	tok, err = s.APIToken()
	require.NoError(t, err)
	assert.Empty(t, tok)

	assert.NoError(t, s.Delete(APITokenKey), "deleting twice")
}

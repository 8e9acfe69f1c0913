package crypto

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFProtection(t *testing.T) {
	key := []byte("test-signing-key")
	csrf := NewCSRFProtection(key, 15*time.Minute)

	token, err := csrf.Generate()
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, ":"), 3)
	assert.True(t, csrf.Validate(token))

	t.Run("tampered signature", func(t *testing.T) {
		assert.False(t, csrf.Validate(token+"x"))
	})

	t.Run("other key", func(t *testing.T) {
		other := NewCSRFProtection([]byte("another-key"), 15*time.Minute)
		assert.False(t, other.Validate(token))
	})

	t.Run("malformed", func(t *testing.T) {
		for _, bad := range []string{"", "a", "a:b", "a:notanumber:c"} {
			assert.False(t, csrf.Validate(bad), bad)
		}
	})

	t.Run("expired", func(t *testing.T) {
		later := NewCSRFProtection(key, 15*time.Minute)
		later.now = func() time.Time { return time.Now().Add(time.Hour) }
		assert.False(t, later.Validate(token))
	})
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTer(now time.Time) *JWTer {
	return &JWTer{
		Secret: []byte("test-secret"),
		Issuer: "kapp-api",
		TTL:    time.Hour,
		Now:    func() time.Time { return now },
	}
}

func TestIssueAndParse(t *testing.T) {
	j := newJWTer(time.Now())

	tok, err := j.Issue(42, "kim@koreatech.ac.kr", RoleAdmin)
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	uid, err := c.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), uid)
	assert.Equal(t, RoleAdmin, c.Role)
	assert.Equal(t, "kim@koreatech.ac.kr", c.Email)
}

func TestParseRejects(t *testing.T) {
	issued := time.Now().Add(-3 * time.Hour)
	old := newJWTer(issued)
	expired, err := old.Issue(1, "a@b.com", RoleUser)
	require.NoError(t, err)

	j := newJWTer(time.Now())
	_, err = j.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := newJWTer(time.Now())
	other.Secret = []byte("another-secret")
	forged, err := other.Issue(1, "a@b.com", RoleAdmin)
	require.NoError(t, err)
	_, err = j.Parse(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIss := newJWTer(time.Now())
	wrongIss.Issuer = "someone-else"
	tok, err := wrongIss.Issue(1, "a@b.com", RoleUser)
	require.NoError(t, err)
	_, err = j.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = j.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaimsUserIDRejectsBadSubject(t *testing.T) {
	c := &Claims{}
	c.Subject = "abc"
	_, err := c.UserID()
	assert.ErrorIs(t, err, ErrInvalidToken)
	c.Subject = "0"
	_, err = c.UserID()
	assert.ErrorIs(t, err, ErrInvalidToken)
}

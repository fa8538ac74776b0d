package auth

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthority(t *testing.T) *TokenAuthority {
	t.Helper()
	authority, err := NewTokenAuthority("test-secret")
	require.NoError(t, err)
	return authority
}

func TestNewTokenAuthority_RequiresSecret(t *testing.T) {
	_, err := NewTokenAuthority("   ")
	assert.Error(t, err)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	authority := newAuthority(t)

	token, err := authority.Issue(42)
	require.NoError(t, err)

	userID, err := authority.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)
}

func TestIssue_ExpiresExactlyOneHourLater(t *testing.T) {
	issuedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	authority := newAuthority(t).WithClock(func() time.Time { return issuedAt })

	token, err := authority.Issue(7)
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, &claims)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.True(t, issuedAt.Equal(claims.IssuedAt.Time))
	assert.True(t, issuedAt.Add(time.Hour).Equal(claims.ExpiresAt.Time))
}

func TestVerify_ValidJustBeforeExpiry(t *testing.T) {
	issuedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	authority := newAuthority(t)

	token, err := authority.WithClock(func() time.Time { return issuedAt }).Issue(7)
	require.NoError(t, err)

	later := authority.WithClock(func() time.Time { return issuedAt.Add(59 * time.Minute) })
	userID, err := later.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, 7, userID)
}

func TestVerify_Expired(t *testing.T) {
	issuedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	authority := newAuthority(t)

	token, err := authority.WithClock(func() time.Time { return issuedAt }).Issue(7)
	require.NoError(t, err)

	later := authority.WithClock(func() time.Time { return issuedAt.Add(61 * time.Minute) })
	_, err = later.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerify_Missing(t *testing.T) {
	_, err := newAuthority(t).Verify("  ")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	other, err := NewTokenAuthority("another-secret")
	require.NoError(t, err)
	token, err := other.Issue(7)
	require.NoError(t, err)

	_, err = newAuthority(t).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	_, err := newAuthority(t).Verify("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newAuthority(t).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_BadSubject(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "abc",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = newAuthority(t).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		token  string
		err    error
	}{
		{name: "absent", header: "", err: ErrMissingToken},
		{name: "scheme only", header: "Bearer ", err: ErrMissingToken},
		{name: "wrong scheme", header: "Basic abc", err: ErrInvalidToken},
		{name: "no scheme", header: "abc", err: ErrInvalidToken},
		{name: "valid", header: "Bearer abc.def.ghi", token: "abc.def.ghi"},
		{name: "case insensitive", header: "bearer abc", token: "abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "/scans", nil)
			require.NoError(t, err)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			token, err := BearerToken(req)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.token, token)
		})
	}
}

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("pw123456")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123456", hash)

	assert.NoError(t, hasher.Compare(hash, "pw123456"))
	assert.ErrorIs(t, hasher.Compare(hash, "wrong"), ErrPasswordMismatch)

	again, err := hasher.Hash("pw123456")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes are salted")
}

func TestPasswordHasher_TooLong(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	_, err := hasher.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = hasher.Hash(strings.Repeat("a", 72))
	assert.NoError(t, err)
}

func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.MaxCost, NewPasswordHasher(99).cost)
}

package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/syberry/bakery-api/internal/adapters/memory"
	domainauth "github.com/syberry/bakery-api/internal/domain/auth"
	"github.com/syberry/bakery-api/internal/domain/model"
	apperrors "github.com/syberry/bakery-api/internal/errors"
	"github.com/syberry/bakery-api/internal/mocks"
	mocksauth "github.com/syberry/bakery-api/internal/mocks/auth"
)

type authFixture struct {
	users     *mocksauth.MemoryUserStore
	refresh   *mocksauth.MemoryRefreshTokenStore
	twoFactor *memory.SecretCache
	reset     *memory.SecretCache
	mailer    *mocksauth.RecordingEmailSender
	svc       *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		users:     mocksauth.NewMemoryUserStore(),
		refresh:   mocksauth.NewMemoryRefreshTokenStore(24 * time.Hour),
		twoFactor: memory.NewSecretCache(5 * time.Minute),
		reset:     memory.NewSecretCache(30 * time.Minute),
		mailer:    &mocksauth.RecordingEmailSender{},
	}

	svc, err := NewAuthService(AuthServiceOptions{
		Users:          f.users,
		Hasher:         mocksauth.PlainHasher{},
		Tokens:         &mocksauth.FakeTokenIssuer{},
		RefreshTokens:  f.refresh,
		TwoFactorCodes: f.twoFactor,
		ResetTokens:    f.reset,
		Mailer:         f.mailer,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *authFixture) seedUser(email, password string, mutate ...func(*model.User)) string {
	user := model.User{
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        email,
		PasswordHash: mocksauth.MustHash(password),
		Roles:        []domainauth.Role{domainauth.RoleUser},
	}
	for _, fn := range mutate {
		fn(&user)
	}
	return f.users.Add(user)
}

func TestNewAuthService_RequiresDependencies(t *testing.T) {
	_, err := NewAuthService(AuthServiceOptions{})
	assert.Error(t, err)
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)
	id := f.seedUser("jane@x.com", "s3cret")

	result, err := f.svc.Login(context.Background(), "jane@x.com", "s3cret")
	require.NoError(t, err)

	assert.False(t, result.SecondFactorRequired)
	assert.Equal(t, "token-for-jane@x.com", result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	require.NotNil(t, result.Profile)
	assert.Equal(t, "jane@x.com", result.Profile.Email)

	session, ok := f.refresh.Live(id)
	require.True(t, ok)
	assert.Equal(t, session.Token, result.Tokens.RefreshToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser("jane@x.com", "s3cret")

	_, err := f.svc.Login(context.Background(), "jane@x.com", "wrong")
	assert.True(t, apperrors.IsAuthentication(err))
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), "nobody@x.com", "s3cret")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestLogin_EmailCaseInsensitive(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser("jane@x.com", "s3cret")

	result, err := f.svc.Login(context.Background(), " Jane@X.COM ", "s3cret")
	require.NoError(t, err)
	require.NotNil(t, result.Profile)
	assert.Equal(t, "jane@x.com", result.Profile.Email)

	// Seeding with mixed case stores the canonical form.
	f.seedUser("John@Y.COM", "s3cret")
	result, err = f.svc.Login(context.Background(), "john@y.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "john@y.com", result.Profile.Email)
}

// countingHasher records how often Verify runs.
type countingHasher struct {
	mocksauth.PlainHasher
	verifies int
}

func (h *countingHasher) Verify(hash, password string) error {
	h.verifies++
	return h.PlainHasher.Verify(hash, password)
}

func TestLogin_UnknownEmailStillHashesPassword(t *testing.T) {
	f := newAuthFixture(t)
	hasher := &countingHasher{}

	svc, err := NewAuthService(AuthServiceOptions{
		Users:          f.users,
		Hasher:         hasher,
		Tokens:         &mocksauth.FakeTokenIssuer{},
		RefreshTokens:  f.refresh,
		TwoFactorCodes: f.twoFactor,
		ResetTokens:    f.reset,
		Mailer:         f.mailer,
	})
	require.NoError(t, err)

	// The unknown-email path must cost a hash comparison, like a wrong
	// password does, so the two cannot be told apart by timing.
	_, err = svc.Login(context.Background(), "nobody@x.com", "s3cret")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, 1, hasher.verifies)
}

func TestLogin_BlockedUserLooksAbsent(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser("jane@x.com", "s3cret", func(u *model.User) { u.Blocked = true })

	_, err := f.svc.Login(context.Background(), "jane@x.com", "s3cret")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestLogin_SecondFactorRequired(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser("jane@x.com", "s3cret", func(u *model.User) { u.TwoFactorEnabled = true })

	result, err := f.svc.Login(context.Background(), "jane@x.com", "s3cret")
	require.NoError(t, err)

	assert.True(t, result.SecondFactorRequired)
	assert.Empty(t, result.Tokens.AccessToken)
	assert.Empty(t, result.Tokens.RefreshToken)
	assert.Nil(t, result.Profile)

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@x.com", sent[0].Recipient)
	assert.Equal(t, "two_factor", sent[0].Kind)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), sent[0].Secret)

	cached, err := f.twoFactor.Get(context.Background(), "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, sent[0].Secret, cached)
}

func TestLogin_MailFailureKeepsCodeCached(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser("jane@x.com", "s3cret", func(u *model.User) { u.TwoFactorEnabled = true })
	f.mailer.Err = assert.AnError

	_, err := f.svc.Login(context.Background(), "jane@x.com", "s3cret")
	assert.True(t, apperrors.IsNotification(err))

	// The cached code survives a delivery failure so a retry overwrites it.
	_, err = f.twoFactor.Get(context.Background(), "jane@x.com")
	assert.NoError(t, err)
}

func TestVerifySecondFactor_Success(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser("jane@x.com", "s3cret", func(u *model.User) { u.TwoFactorEnabled = true })

	_, err := f.svc.Login(context.Background(), "jane@x.com", "s3cret")
	require.NoError(t, err)
	code := f.mailer.Sent()[0].Secret

	result, err := f.svc.VerifySecondFactor(context.Background(), "jane@x.com", code)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	require.NotNil(t, result.Profile)

	// The code is consumed and cannot be replayed.
	_, err = f.svc.VerifySecondFactor(context.Background(), "jane@x.com", code)
	assert.True(t, apperrors.IsVerification(err))
}

func TestVerifySecondFactor_WrongCode(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser("jane@x.com", "s3cret", func(u *model.User) { u.TwoFactorEnabled = true })

	_, err := f.svc.Login(context.Background(), "jane@x.com", "s3cret")
	require.NoError(t, err)

	_, err = f.svc.VerifySecondFactor(context.Background(), "jane@x.com", "000000")
	assert.True(t, apperrors.IsVerification(err))

	// A wrong attempt does not consume the real code.
	code := f.mailer.Sent()[0].Secret
	_, err = f.svc.VerifySecondFactor(context.Background(), "jane@x.com", code)
	assert.NoError(t, err)
}

func TestVerifySecondFactor_EmailCaseInsensitive(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser("jane@x.com", "s3cret", func(u *model.User) { u.TwoFactorEnabled = true })

	// The code is cached under the canonical email even when login used a
	// different case, so verification with any casing finds it.
	_, err := f.svc.Login(context.Background(), "JANE@X.COM", "s3cret")
	require.NoError(t, err)
	code := f.mailer.Sent()[0].Secret

	result, err := f.svc.VerifySecondFactor(context.Background(), "Jane@x.com", code)
	require.NoError(t, err)
	require.NotNil(t, result.Profile)
	assert.Equal(t, "jane@x.com", result.Profile.Email)
}

func TestVerifySecondFactor_NoPendingCode(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser("jane@x.com", "s3cret", func(u *model.User) { u.TwoFactorEnabled = true })

	_, err := f.svc.VerifySecondFactor(context.Background(), "jane@x.com", "123456")
	assert.True(t, apperrors.IsVerification(err))
}

func TestRefresh_RotatesSession(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser("jane@x.com", "s3cret")

	login, err := f.svc.Login(context.Background(), "jane@x.com", "s3cret")
	require.NoError(t, err)
	first := login.Tokens.RefreshToken

	refreshed, err := f.svc.Refresh(context.Background(), first)
	require.NoError(t, err)
	assert.NotEqual(t, first, refreshed.Tokens.RefreshToken)
	assert.Nil(t, refreshed.Profile)

	// The superseded token is dead.
	_, err = f.svc.Refresh(context.Background(), first)
	assert.True(t, apperrors.IsSessionExpired(err))

	// The fresh one works.
	_, err = f.svc.Refresh(context.Background(), refreshed.Tokens.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_UnknownOrEmptyToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Refresh(context.Background(), "no-such-token")
	assert.True(t, apperrors.IsSessionExpired(err))

	_, err = f.svc.Refresh(context.Background(), "")
	assert.True(t, apperrors.IsSessionExpired(err))
}

func TestRefresh_ExpiredSession(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser("jane@x.com", "s3cret")

	login, err := f.svc.Login(context.Background(), "jane@x.com", "s3cret")
	require.NoError(t, err)

	f.refresh.Now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	_, err = f.svc.Refresh(context.Background(), login.Tokens.RefreshToken)
	assert.True(t, apperrors.IsSessionExpired(err))
}

func TestLogout_RevokesSession(t *testing.T) {
	f := newAuthFixture(t)
	id := f.seedUser("jane@x.com", "s3cret")

	login, err := f.svc.Login(context.Background(), "jane@x.com", "s3cret")
	require.NoError(t, err)

	_, err = f.svc.Logout(context.Background(), id)
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), login.Tokens.RefreshToken)
	assert.True(t, apperrors.IsSessionExpired(err))

	// Logout is idempotent.
	_, err = f.svc.Logout(context.Background(), id)
	assert.NoError(t, err)
}

func TestRequestPasswordReset_SendsToken(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser("jane@x.com", "s3cret")

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "jane@x.com"))

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "password_reset", sent[0].Kind)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{18}$`), sent[0].Secret)
}

func TestRequestPasswordResetByID(t *testing.T) {
	f := newAuthFixture(t)
	id := f.seedUser("jane@x.com", "s3cret")

	require.NoError(t, f.svc.RequestPasswordResetByID(context.Background(), id))

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@x.com", sent[0].Recipient)
}

func TestResetPassword_Success(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser("jane@x.com", "s3cret")

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "jane@x.com"))
	token := f.mailer.Sent()[0].Secret

	require.NoError(t, f.svc.ResetPassword(context.Background(), "jane@x.com", token, "n3w-pass"))

	// The old password no longer works; the new one does.
	_, err := f.svc.Login(context.Background(), "jane@x.com", "s3cret")
	assert.True(t, apperrors.IsAuthentication(err))
	_, err = f.svc.Login(context.Background(), "jane@x.com", "n3w-pass")
	assert.NoError(t, err)

	// The token is single use.
	err = f.svc.ResetPassword(context.Background(), "jane@x.com", token, "another")
	assert.True(t, apperrors.IsVerification(err))
}

func TestResetPassword_WrongToken(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser("jane@x.com", "s3cret")

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "jane@x.com"))

	err := f.svc.ResetPassword(context.Background(), "jane@x.com", "AAAAAAAAAAAAAAAAAA", "n3w-pass")
	assert.True(t, apperrors.IsVerification(err))

	// The password is unchanged.
	_, err = f.svc.Login(context.Background(), "jane@x.com", "s3cret")
	assert.NoError(t, err)
}

func TestUpdatePassword(t *testing.T) {
	f := newAuthFixture(t)
	id := f.seedUser("jane@x.com", "s3cret")

	err := f.svc.UpdatePassword(context.Background(), id, "wrong", "n3w-pass")
	assert.True(t, apperrors.IsAuthentication(err))

	require.NoError(t, f.svc.UpdatePassword(context.Background(), id, "s3cret", "n3w-pass"))

	_, err = f.svc.Login(context.Background(), "jane@x.com", "n3w-pass")
	assert.NoError(t, err)
}

func TestSetSecondFactorEnabled(t *testing.T) {
	f := newAuthFixture(t)
	id := f.seedUser("jane@x.com", "s3cret")

	require.NoError(t, f.svc.SetSecondFactorEnabled(context.Background(), id, true))

	result, err := f.svc.Login(context.Background(), "jane@x.com", "s3cret")
	require.NoError(t, err)
	assert.True(t, result.SecondFactorRequired)

	require.NoError(t, f.svc.SetSecondFactorEnabled(context.Background(), id, false))

	result, err = f.svc.Login(context.Background(), "jane@x.com", "s3cret")
	require.NoError(t, err)
	assert.False(t, result.SecondFactorRequired)
}

func TestLogin_EmailedCodeMatchesCachedCode(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser("jane@x.com", "s3cret", func(u *model.User) { u.TwoFactorEnabled = true })

	ctrl := gomock.NewController(t)
	mailer := mocks.NewMockEmailSender(ctrl)

	var emailed string
	mailer.EXPECT().
		SendTwoFactorCode(gomock.Any(), "jane@x.com", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, code string) error {
			emailed = code
			return nil
		})

	svc, err := NewAuthService(AuthServiceOptions{
		Users:          f.users,
		Hasher:         mocksauth.PlainHasher{},
		Tokens:         &mocksauth.FakeTokenIssuer{},
		RefreshTokens:  f.refresh,
		TwoFactorCodes: f.twoFactor,
		ResetTokens:    f.reset,
		Mailer:         mailer,
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "jane@x.com", "s3cret")
	require.NoError(t, err)

	cached, err := f.twoFactor.Get(context.Background(), "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, emailed, cached)
}

func TestGenerateNumericCode_Format(t *testing.T) {
	re := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := generateNumericCode(6)
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}
}

func TestGenerateResetToken_Format(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z0-9]{18}$`)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := generateResetToken(18)
		require.NoError(t, err)
		assert.Regexp(t, re, token)
		seen[token] = true
	}
	// Collisions across 50 draws would indicate broken randomness.
	assert.Greater(t, len(seen), 45)
}

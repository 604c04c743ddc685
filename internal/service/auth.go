package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	domainauth "github.com/syberry/bakery-api/internal/domain/auth"
	"github.com/syberry/bakery-api/internal/domain/model"
	apperrors "github.com/syberry/bakery-api/internal/errors"
	"github.com/syberry/bakery-api/internal/observability/statsd"
	"github.com/syberry/bakery-api/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Users          ports.UserStore
	Hasher         ports.PasswordHasher
	Tokens         ports.TokenIssuer
	RefreshTokens  ports.RefreshTokenStore
	TwoFactorCodes ports.SecretCache
	ResetTokens    ports.SecretCache
	Mailer         ports.EmailSender

	// Metrics is optional; nil disables emission.
	Metrics statsd.Sink
}

// AuthService orchestrates the login state machine: credential check,
// optional second factor, token issuance, refresh rotation, logout, and the
// password reset/update flows. It owns all refresh-session and one-time-secret
// state; no other component touches those stores.
type AuthService struct {
	users     ports.UserStore
	hasher    ports.PasswordHasher
	tokens    ports.TokenIssuer
	refresh   ports.RefreshTokenStore
	twoFactor ports.SecretCache
	reset     ports.SecretCache
	mailer    ports.EmailSender
	metrics   statsd.Sink
}

// NewAuthService constructs a new AuthService, validating required dependencies.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	switch {
	case opts.Users == nil:
		return nil, errors.New("UserStore is required")
	case opts.Hasher == nil:
		return nil, errors.New("PasswordHasher is required")
	case opts.Tokens == nil:
		return nil, errors.New("TokenIssuer is required")
	case opts.RefreshTokens == nil:
		return nil, errors.New("RefreshTokenStore is required")
	case opts.TwoFactorCodes == nil:
		return nil, errors.New("two-factor SecretCache is required")
	case opts.ResetTokens == nil:
		return nil, errors.New("reset-token SecretCache is required")
	case opts.Mailer == nil:
		return nil, errors.New("EmailSender is required")
	}

	return &AuthService{
		users:     opts.Users,
		hasher:    opts.Hasher,
		tokens:    opts.Tokens,
		refresh:   opts.RefreshTokens,
		twoFactor: opts.TwoFactorCodes,
		reset:     opts.ResetTokens,
		mailer:    opts.Mailer,
		metrics:   opts.Metrics,
	}, nil
}

// LoginResult is returned by Login, VerifySecondFactor, and Refresh.
// When SecondFactorRequired is true no tokens are present and the caller must
// complete the flow with VerifySecondFactor.
type LoginResult struct {
	SecondFactorRequired bool
	Tokens               domainauth.TokenPair
	Profile              *domainauth.Profile
}

// Login verifies credentials and either issues tokens directly or, for users
// with two-factor auth enabled, caches a fresh emailed code and returns a
// pending result carrying no tokens.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.lookupByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			// Burn a hash comparison so an unknown email costs the same as a
			// wrong password.
			_ = s.hasher.Verify(unknownUserHash, password)
			s.count("auth.login.failure")
		}
		return nil, err
	}

	if verifyErr := s.hasher.Verify(user.PasswordHash, password); verifyErr != nil {
		s.count("auth.login.failure")
		return nil, apperrors.Authentication("invalid credentials")
	}

	if user.TwoFactorEnabled {
		if sendErr := s.sendTwoFactorCode(ctx, user.Email); sendErr != nil {
			return nil, sendErr
		}
		s.count("auth.login.second_factor_required")
		return &LoginResult{SecondFactorRequired: true}, nil
	}

	result, err := s.issueTokens(ctx, user, true)
	if err != nil {
		return nil, err
	}
	s.count("auth.login.success")
	return result, nil
}

// VerifySecondFactor completes a pending two-factor login. The cached code is
// consumed on success and can never be replayed.
func (s *AuthService) VerifySecondFactor(ctx context.Context, email, code string) (*LoginResult, error) {
	user, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	cached, err := s.twoFactor.Get(ctx, user.Email)
	if err != nil {
		if errors.Is(err, ports.ErrSecretNotFound) {
			s.count("auth.second_factor.failure")
			return nil, apperrors.Verification("verification code is invalid or expired")
		}
		return nil, fmt.Errorf("get cached code: %w", err)
	}
	if !secretsEqual(cached, code) {
		s.count("auth.second_factor.failure")
		return nil, apperrors.Verification("verification code is invalid or expired")
	}

	if invErr := s.twoFactor.Invalidate(ctx, user.Email); invErr != nil {
		return nil, fmt.Errorf("invalidate code: %w", invErr)
	}

	result, err := s.issueTokens(ctx, user, true)
	if err != nil {
		return nil, err
	}
	s.count("auth.second_factor.success")
	return result, nil
}

// Refresh rotates the presented refresh token and issues a fresh access token.
// Absent or expired sessions require a new login.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, apperrors.SessionExpired("refresh token is empty")
	}

	userID, err := s.refresh.Verify(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ports.ErrTokenNotFound) || errors.Is(err, ports.ErrTokenExpired) {
			s.count("auth.refresh.failure")
			return nil, apperrors.SessionExpired("session expired, please sign in again")
		}
		return nil, fmt.Errorf("verify refresh token: %w", err)
	}

	user, err := s.lookupByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := s.issueTokens(ctx, user, false)
	if err != nil {
		return nil, err
	}
	s.count("auth.refresh.success")
	return result, nil
}

// Logout revokes the user's refresh session and returns cleared token
// artifacts for the transport layer to propagate.
func (s *AuthService) Logout(ctx context.Context, userID string) (domainauth.TokenPair, error) {
	if err := s.refresh.Revoke(ctx, userID); err != nil {
		return domainauth.TokenPair{}, fmt.Errorf("revoke refresh token: %w", err)
	}
	s.count("auth.logout")
	return domainauth.TokenPair{}, nil
}

// RequestPasswordReset caches a fresh reset token for the user and emails it.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.sendPasswordReset(ctx, user)
}

// RequestPasswordResetByID is the admin/HR-triggered variant of
// RequestPasswordReset, addressing the target user by id.
func (s *AuthService) RequestPasswordResetByID(ctx context.Context, userID string) error {
	user, err := s.lookupByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.sendPasswordReset(ctx, user)
}

// ResetPassword consumes a cached reset token and overwrites the user's
// password hash. The token is single-use.
func (s *AuthService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	user, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return err
	}

	cached, err := s.reset.Get(ctx, user.Email)
	if err != nil {
		if errors.Is(err, ports.ErrSecretNotFound) {
			s.count("auth.password_reset.failure")
			return apperrors.Verification("reset token is invalid or expired")
		}
		return fmt.Errorf("get cached reset token: %w", err)
	}
	if !secretsEqual(cached, token) {
		s.count("auth.password_reset.failure")
		return apperrors.Verification("reset token is invalid or expired")
	}

	if invErr := s.reset.Invalidate(ctx, user.Email); invErr != nil {
		return fmt.Errorf("invalidate reset token: %w", invErr)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}
	user.PasswordHash = hash
	if saveErr := s.users.Save(ctx, user); saveErr != nil {
		return fmt.Errorf("save user: %w", saveErr)
	}

	s.count("auth.password_reset.success")
	return nil
}

// UpdatePassword changes the caller's own password after verifying the
// current one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.lookupByID(ctx, userID)
	if err != nil {
		return err
	}

	if verifyErr := s.hasher.Verify(user.PasswordHash, currentPassword); verifyErr != nil {
		return apperrors.Authentication("invalid current password")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}
	user.PasswordHash = hash
	if saveErr := s.users.Save(ctx, user); saveErr != nil {
		return fmt.Errorf("save user: %w", saveErr)
	}
	return nil
}

// SetSecondFactorEnabled flips the user's two-factor flag.
func (s *AuthService) SetSecondFactorEnabled(ctx context.Context, userID string, enabled bool) error {
	user, err := s.lookupByID(ctx, userID)
	if err != nil {
		return err
	}
	user.TwoFactorEnabled = enabled
	if saveErr := s.users.Save(ctx, user); saveErr != nil {
		return fmt.Errorf("save user: %w", saveErr)
	}
	return nil
}

// issueTokens is the shared tail of every successful authentication: a signed
// access token plus a rotated refresh token, optionally with the public
// profile attached.
func (s *AuthService) issueTokens(ctx context.Context, user *model.User, withProfile bool) (*LoginResult, error) {
	accessToken, accessExpiry, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	session, err := s.refresh.IssueOrRotate(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	result := &LoginResult{
		Tokens: domainauth.TokenPair{
			AccessToken:      accessToken,
			RefreshToken:     session.Token,
			AccessExpiresAt:  accessExpiry,
			RefreshExpiresAt: session.ExpiresAt,
		},
	}
	if withProfile {
		profile := user.Profile()
		result.Profile = &profile
	}
	return result, nil
}

func (s *AuthService) sendTwoFactorCode(ctx context.Context, email string) error {
	code, err := generateNumericCode(twoFactorCodeDigits)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	if putErr := s.twoFactor.Put(ctx, email, code); putErr != nil {
		return fmt.Errorf("cache code: %w", putErr)
	}
	// The cached code stays valid until its TTL even when delivery fails, so
	// a resend request simply overwrites it.
	if sendErr := s.mailer.SendTwoFactorCode(ctx, email, code); sendErr != nil {
		s.count("auth.mail.failure")
		return apperrors.Wrap(sendErr, apperrors.ErrCodeNotification, "send verification email")
	}
	return nil
}

func (s *AuthService) sendPasswordReset(ctx context.Context, user *model.User) error {
	token, err := generateResetToken(resetTokenLength)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if putErr := s.reset.Put(ctx, user.Email, token); putErr != nil {
		return fmt.Errorf("cache reset token: %w", putErr)
	}
	if sendErr := s.mailer.SendPasswordReset(ctx, user.Email, token); sendErr != nil {
		s.count("auth.mail.failure")
		return apperrors.Wrap(sendErr, apperrors.ErrCodeNotification, "send reset email")
	}
	s.count("auth.password_reset.requested")
	return nil
}

func (s *AuthService) lookupByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, domainauth.NormalizeEmail(email), true)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return nil, apperrors.NotFound("user is not found")
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (s *AuthService) lookupByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return nil, apperrors.NotFound("user is not found")
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

func (s *AuthService) count(name string) {
	if s.metrics != nil {
		s.metrics.Count(name, 1, nil)
	}
}

const (
	twoFactorCodeDigits = 6
	resetTokenLength    = 18
	resetTokenCharset   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"

	// unknownUserHash is a throwaway bcrypt hash verified against when no
	// user matches the login email.
	unknownUserHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// generateNumericCode produces a zero-padded numeric code of the given width.
func generateNumericCode(digits int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}

// generateResetToken produces an uppercase alphanumeric token.
func generateResetToken(length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(resetTokenCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = resetTokenCharset[n.Int64()]
	}
	return string(out), nil
}

// secretsEqual compares secrets in constant time to avoid a timing oracle.
func secretsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Package auth provides in-memory fakes for the auth ports, used by service
// and transport tests.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/syberry/bakery-api/internal/domain/auth"
	"github.com/syberry/bakery-api/internal/domain/model"
	"github.com/syberry/bakery-api/internal/ports"
)

// MemoryUserStore is a map-backed ports.UserStore that mirrors the relational
// store's semantics, including the last-admin guard.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

var _ ports.UserStore = (*MemoryUserStore)(nil)

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*model.User)}
}

// Add stores a copy of user, assigning an id when absent, and returns the id.
func (s *MemoryUserStore) Add(user model.User) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = domainauth.NormalizeEmail(user.Email)
	if len(user.Roles) == 0 {
		user.Roles = []domainauth.Role{domainauth.RoleUser}
	}
	s.users[user.ID] = &user
	return user.ID
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string, onlyUnblocked bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = domainauth.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email && (!onlyUnblocked || !u.Blocked) {
			return copyUser(u), nil
		}
	}
	return nil, ports.ErrUserNotFound
}

func (s *MemoryUserStore) FindByID(_ context.Context, id string, onlyUnblocked bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || (onlyUnblocked && u.Blocked) {
		return nil, ports.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryUserStore) Save(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[user.ID]
	if !ok {
		return ports.ErrUserNotFound
	}
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Email = domainauth.NormalizeEmail(user.Email)
	stored.PasswordHash = user.PasswordHash
	stored.Blocked = user.Blocked
	stored.TwoFactorEnabled = user.TwoFactorEnabled
	return nil
}

func (s *MemoryUserStore) CountUnblockedWithRole(_ context.Context, role domainauth.Role) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countUnblockedWithRoleLocked(role), nil
}

func (s *MemoryUserStore) countUnblockedWithRoleLocked(role domainauth.Role) int {
	count := 0
	for _, u := range s.users {
		if !u.Blocked && u.HasRole(role) {
			count++
		}
	}
	return count
}

func (s *MemoryUserStore) AddRole(_ context.Context, userID string, role domainauth.Role) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ports.ErrUserNotFound
	}
	u.Roles = domainauth.WithRole(u.Roles, role)
	return copyUser(u), nil
}

func (s *MemoryUserStore) RemoveRole(_ context.Context, userID string, role domainauth.Role) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ports.ErrUserNotFound
	}
	if role == domainauth.RoleAdmin && u.HasRole(domainauth.RoleAdmin) && !u.Blocked &&
		s.countUnblockedWithRoleLocked(domainauth.RoleAdmin) == 1 {
		return nil, ports.ErrLastAdminProtected
	}
	u.Roles = domainauth.WithoutRole(u.Roles, role)
	return copyUser(u), nil
}

func copyUser(u *model.User) *model.User {
	cp := *u
	cp.Roles = append([]domainauth.Role(nil), u.Roles...)
	return &cp
}

// MemoryRefreshTokenStore is a map-backed ports.RefreshTokenStore.
type MemoryRefreshTokenStore struct {
	TTL time.Duration
	Now func() time.Time

	mu     sync.Mutex
	byUser map[string]model.RefreshToken
}

var _ ports.RefreshTokenStore = (*MemoryRefreshTokenStore)(nil)

func NewMemoryRefreshTokenStore(ttl time.Duration) *MemoryRefreshTokenStore {
	return &MemoryRefreshTokenStore{
		TTL:    ttl,
		Now:    time.Now,
		byUser: make(map[string]model.RefreshToken),
	}
}

func (s *MemoryRefreshTokenStore) IssueOrRotate(_ context.Context, userID string) (model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	token := model.RefreshToken{
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(s.TTL),
		CreatedAt: now,
	}
	s.byUser[userID] = token
	return token, nil
}

func (s *MemoryRefreshTokenStore) Verify(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, stored := range s.byUser {
		if stored.Token != token {
			continue
		}
		if stored.Expired(s.Now()) {
			delete(s.byUser, userID)
			return "", ports.ErrTokenExpired
		}
		return userID, nil
	}
	return "", ports.ErrTokenNotFound
}

func (s *MemoryRefreshTokenStore) Revoke(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
	return nil
}

// Live returns the user's current session for assertions.
func (s *MemoryRefreshTokenStore) Live(userID string) (model.RefreshToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.byUser[userID]
	return token, ok
}

// SentMail captures one delivered message.
type SentMail struct {
	Recipient string
	Kind      string
	Secret    string
}

// RecordingEmailSender records sent mail and can be made to fail.
type RecordingEmailSender struct {
	Err error

	mu   sync.Mutex
	sent []SentMail
}

var _ ports.EmailSender = (*RecordingEmailSender)(nil)

func (s *RecordingEmailSender) SendTwoFactorCode(_ context.Context, recipient, code string) error {
	return s.record(SentMail{Recipient: recipient, Kind: "two_factor", Secret: code})
}

func (s *RecordingEmailSender) SendPasswordReset(_ context.Context, recipient, token string) error {
	return s.record(SentMail{Recipient: recipient, Kind: "password_reset", Secret: token})
}

func (s *RecordingEmailSender) record(mail SentMail) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, mail)
	return nil
}

// Sent returns a snapshot of every recorded message.
func (s *RecordingEmailSender) Sent() []SentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentMail(nil), s.sent...)
}

// FakeTokenIssuer issues deterministic tokens of the form "token-for-<subject>".
type FakeTokenIssuer struct {
	TTL time.Duration
}

var _ ports.TokenIssuer = (*FakeTokenIssuer)(nil)

func (f *FakeTokenIssuer) Issue(subject string) (string, time.Time, error) {
	ttl := f.TTL
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return "token-for-" + subject, time.Now().Add(ttl), nil
}

func (f *FakeTokenIssuer) Validate(token string) (string, error) {
	const prefix = "token-for-"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return "", ports.ErrInvalidToken
	}
	return token[len(prefix):], nil
}

// PlainHasher hashes by prefixing; only for tests.
type PlainHasher struct{}

var _ ports.PasswordHasher = PlainHasher{}

func (PlainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (PlainHasher) Verify(hash, password string) error {
	if hash != "hashed:"+password {
		return ports.ErrPasswordMismatch
	}
	return nil
}

// MustHash is a convenience for seeding fakes.
func MustHash(password string) string {
	return fmt.Sprintf("hashed:%s", password)
}

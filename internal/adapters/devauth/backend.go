package devauth

// Package devauth provides an in-process AuthBackend for offline demos and local development.
// It never touches the network: tokens are issued, verified and revoked in memory.

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	domainauth "github.com/corruptguard/helix/internal/domain/auth"
	apperrors "github.com/corruptguard/helix/internal/errors"
	"github.com/corruptguard/helix/internal/ports"
	"github.com/google/uuid"
)

var _ ports.AuthBackend = (*Backend)(nil)

const (
	tokenTTL      = time.Hour
	principalSalt = 8
	base36        = "0123456789abcdefghijklmnopqrstuvwxyz"
)

type grant struct {
	role      domainauth.UserRole
	principal string
	expiresAt time.Time
}

// Backend implements ports.AuthBackend without a server.
type Backend struct {
	mu     sync.Mutex
	tokens map[string]grant
	now    func() time.Time
	// seq disambiguates tokens issued within the same millisecond.
	seq int
}

// Option configures a Backend.
type Option func(*Backend)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// New returns an empty offline backend.
func New(opts ...Option) *Backend {
	b := &Backend{tokens: make(map[string]grant), now: time.Now}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Backend) DemoLogin(_ context.Context, role domainauth.UserRole) (domainauth.TokenGrant, error) {
	if !role.Valid() {
		return domainauth.TokenGrant{}, apperrors.Validationf("invalid role: %s", role)
	}
	principal := fmt.Sprintf("demo-principal-%s-%s", role, randomBase36(principalSalt))
	return b.issue(role, principal, true), nil
}

func (b *Backend) WalletLogin(_ context.Context, in ports.WalletLoginInput) (domainauth.TokenGrant, error) {
	if strings.TrimSpace(in.AccountID) == "" {
		return domainauth.TokenGrant{}, apperrors.ValidationField("account_id", "account id is required")
	}
	return b.issue(domainauth.RoleCitizen, in.AccountID, false), nil
}

func (b *Backend) issue(role domainauth.UserRole, principal string, demo bool) domainauth.TokenGrant {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	token := b.mintLocked(role, now)
	b.tokens[token] = grant{role: role, principal: principal, expiresAt: now.Add(tokenTTL)}

	profile := domainauth.Profile(role)
	return domainauth.TokenGrant{
		AccessToken: token,
		TokenType:   "Bearer",
		PrincipalID: principal,
		Role:        string(role),
		UserInfo: domainauth.UserInfo{
			Name:            profile.DemoName,
			Title:           profile.DemoTitle,
			Permissions:     profile.Permissions,
			AuthenticatedAt: now.UTC().Format(time.RFC3339),
			DemoMode:        demo,
		},
		ExpiresIn: int(tokenTTL.Seconds()),
		DemoMode:  demo,
		SessionID: uuid.NewString(),
	}
}

func (b *Backend) mintLocked(role domainauth.UserRole, now time.Time) string {
	token := fmt.Sprintf("demo_token_%s_%d", role, now.UnixMilli())
	if _, taken := b.tokens[token]; taken {
		b.seq++
		token = fmt.Sprintf("%s_%d", token, b.seq)
	}
	return token
}

func (b *Backend) Logout(_ context.Context, in ports.LogoutInput) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, in.Token)
	return nil
}

func (b *Backend) VerifyToken(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.tokens[token]
	if !ok {
		return false, nil
	}
	if b.now().After(g.expiresAt) {
		delete(b.tokens, token)
		return false, nil
	}
	return true, nil
}

func (b *Backend) Refresh(_ context.Context, token string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.tokens[token]
	now := b.now()
	if !ok || now.After(g.expiresAt) {
		delete(b.tokens, token)
		return "", apperrors.Unauthenticated("token is not active")
	}
	delete(b.tokens, token)
	next := b.mintLocked(g.role, now)
	g.expiresAt = now.Add(tokenTTL)
	b.tokens[next] = g
	return next, nil
}

func (b *Backend) MockUsers(_ context.Context) ([]domainauth.DemoUser, error) {
	return domainauth.DemoUsers(), nil
}

func randomBase36(n int) string {
	var sb strings.Builder
	limit := big.NewInt(int64(len(base36)))
	for range n {
		i, err := rand.Int(rand.Reader, limit)
		if err != nil {
			sb.WriteByte('0')
			continue
		}
		sb.WriteByte(base36[i.Int64()])
	}
	return sb.String()
}

// Package service implements the auth use cases on top of the store, the
// token codec, and the revocation set.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rollcall-hq/rollcall/internal/auth/domain"
	"github.com/rollcall-hq/rollcall/internal/auth/revoke"
	"github.com/rollcall-hq/rollcall/internal/auth/store"
	"github.com/rollcall-hq/rollcall/pkg/cryptox"
	"github.com/rollcall-hq/rollcall/pkg/jwtx"
	"github.com/rollcall-hq/rollcall/pkg/slogx"
)

var (
	// ErrInvalidCredentials covers every login failure mode: unknown email,
	// wrong password, corrupt credential record. Callers must not
	// distinguish them.
	ErrInvalidCredentials = errors.New("service: invalid credentials")

	// ErrInvalidRefresh covers every refresh failure mode: malformed, bad
	// signature, expired, or revoked refresh token.
	ErrInvalidRefresh = errors.New("service: invalid refresh token")
)

// SessionService mints, refreshes, and revokes sessions.
type SessionService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Store    store.Store
	Revoked  revoke.Store

	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	now func() time.Time
}

func NewSessionService(
	signer jwtx.Signer,
	verifier jwtx.Verifier,
	st store.Store,
	revoked revoke.Store,
	issuer string,
	accessTTL, refreshTTL time.Duration,
) *SessionService {
	if accessTTL <= 0 {
		accessTTL = jwtx.DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = jwtx.DefaultRefreshTokenTTL
	}

	return &SessionService{
		Signer:     signer,
		Verifier:   verifier,
		Store:      st,
		Revoked:    revoked,
		Issuer:     issuer,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Login checks the email/password pair and mints a token pair. Accounts
// imported with a plaintext password get upgraded to a proper hash on their
// first successful login.
func (s *SessionService) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	// Emails are stored lowercase; match CreateUser's normalization.
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn roughly the same time as a real verification so the
			// timing of a failed login doesn't reveal whether the email
			// exists.
			_ = cryptox.VerifyPassword(password, decoyRecord)
			return domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, fmt.Errorf("service: login lookup: %w", err)
	}

	switch {
	case user.PasswordHash != "":
		if !cryptox.VerifyPassword(password, user.PasswordHash) {
			return domain.TokenPair{}, ErrInvalidCredentials
		}

	case user.HasLegacyPassword():
		if subtle.ConstantTimeCompare([]byte(password), []byte(*user.LegacyPassword)) != 1 {
			return domain.TokenPair{}, ErrInvalidCredentials
		}
		if err := s.upgradeLegacyCredential(ctx, user.ID, password); err != nil {
			return domain.TokenPair{}, fmt.Errorf("service: legacy upgrade: %w", err)
		}
		log.Info("legacy credential upgraded", "user_id", user.ID)

	default:
		// No credential on file at all.
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	return s.issuePair(user)
}

// upgradeLegacyCredential replaces an imported plaintext password with a
// PBKDF2 record. Hash write and plaintext purge commit together or not at
// all, so no account is ever left with both or neither.
func (s *SessionService) upgradeLegacyCredential(ctx context.Context, userID, password string) error {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
			return err
		}
		return tx.Users().ClearLegacyPassword(ctx, userID)
	})
}

// issuePair mints the access and refresh tokens for one login. Both carry
// the same identity snapshot; lifetimes and jtis differ.
func (s *SessionService) issuePair(user domain.User) (domain.TokenPair, error) {
	identity := jwtx.Identity{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role.String(),
		DisplayName: user.DisplayName,
	}
	now := s.now()

	access, err := s.Signer.Sign(jwtx.NewClaims(identity, s.Issuer, s.AccessTTL, now))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("service: sign access token: %w", err)
	}

	refresh, err := s.Signer.Sign(jwtx.NewClaims(identity, s.Issuer, s.RefreshTTL, now))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("service: sign refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresIn:        int64(s.AccessTTL.Seconds()),
		RefreshExpiresIn: int64(s.RefreshTTL.Seconds()),
	}, nil
}

// Refresh mints a new access token from a live refresh token. The refresh
// token itself is not rotated; it keeps its original expiry and jti.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := s.Verifier.Verify(refreshToken)
	if err != nil {
		return "", 0, ErrInvalidRefresh
	}

	revoked, err := s.Revoked.Contains(ctx, claims.ID)
	if err != nil {
		return "", 0, fmt.Errorf("service: refresh revocation check: %w", err)
	}
	if revoked {
		return "", 0, ErrInvalidRefresh
	}

	access, err := s.Signer.Sign(jwtx.NewClaims(claims.Identity(), s.Issuer, s.AccessTTL, s.now()))
	if err != nil {
		return "", 0, fmt.Errorf("service: sign access token: %w", err)
	}

	return access, int64(s.AccessTTL.Seconds()), nil
}

// Logout revokes the given tokens. It is idempotent and never fails on bad
// input: tokens that don't parse carry no jti worth denying, and revoking an
// already revoked or expired token changes nothing.
func (s *SessionService) Logout(ctx context.Context, tokens ...string) {
	log := slogx.FromContext(ctx)
	now := s.now()

	for _, token := range tokens {
		if token == "" {
			continue
		}

		claims, err := jwtx.DecodeUnverified(token)
		if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
			continue
		}

		ttl := claims.ExpiresAt.Time.Sub(now)
		if err := s.Revoked.Add(ctx, claims.ID, ttl); err != nil {
			// Logout still reports success to the client; the token dies at
			// its natural expiry regardless.
			log.Warn("failed to record revocation", slog.Any("error", err))
		}
	}
}

// decoyRecord is a well-formed credential record verified against during
// logins for unknown emails. The password behind it is irrelevant; the
// verification result is discarded.
var decoyRecord = func() string {
	record, err := cryptox.HashPassword("decoy")
	if err != nil {
		return ""
	}
	return record
}()

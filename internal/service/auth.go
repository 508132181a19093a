package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/spendwise/api/internal/crypto"
	"github.com/spendwise/api/internal/errs"
	"github.com/spendwise/api/internal/limiter"
	"github.com/spendwise/api/internal/model"
	"github.com/spendwise/api/internal/repository"
)

const (
	minPasswordLen = 8

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// AuthService defines registration, login and token refresh.
type AuthService interface {
	// Register creates a new user with a hashed password and issues tokens.
	Register(ctx context.Context, email, name, password string) (model.Tokens, *model.User, error)
	// LoginWithIP applies rate-limiting and authenticates the user.
	LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, *model.User, error)
	// Refresh exchanges a valid refresh token for a fresh token pair.
	Refresh(ctx context.Context, refreshToken string) (model.Tokens, *model.User, error)
	// CurrentUser loads the authenticated principal.
	CurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

type AuthServiceImpl struct {
	users      repository.UserRepository
	signKey    []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	lim        limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(
	users repository.UserRepository,
	signKey []byte,
	accessTTL, refreshTTL time.Duration,
	lim limiter.Limiter,
) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, refreshTTL: refreshTTL, lim: lim}
}

// Register creates a new user record and issues a token pair.
func (s *AuthServiceImpl) Register(ctx context.Context, email, name, password string) (model.Tokens, *model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	fe := errs.FieldErrors{}
	if _, err := mail.ParseAddress(email); err != nil {
		fe.Add("email", "must be a valid email address")
	}
	if len(password) < minPasswordLen {
		fe.Add("password", "must be at least 8 characters")
	}
	if err := fe.OrNil(); err != nil {
		return model.Tokens{}, nil, err
	}

	hash, err := pkgcrypto.HashPassword(password)
	if err != nil {
		return model.Tokens{}, nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return model.Tokens{}, nil, err
	}

	u := &model.User{
		ID:           id,
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	}
	// The unique index backs this up; Create maps the violation to ErrEmailTaken.
	if err := s.users.Create(ctx, u); err != nil {
		return model.Tokens{}, nil, err
	}

	tokens, err := s.issueTokens(u.ID)
	if err != nil {
		return model.Tokens{}, nil, err
	}
	return tokens, u, nil
}

// LoginWithIP authenticates with rate limiting keyed by (email, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, *model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, nil, err
	}
	if !allowed {
		return model.Tokens{}, nil, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	ok := false
	if err == nil {
		ok, _ = pkgcrypto.VerifyPassword(password, u.PasswordHash)
	}
	if !ok {
		// Same failure path whether the account exists or not.
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Tokens{}, nil, errs.ErrRateLimited
		}
		return model.Tokens{}, nil, errs.ErrInvalidCredentials
	}

	_ = s.lim.Success(ctx, email, ipHash) // best-effort reset

	tokens, err := s.issueTokens(u.ID)
	if err != nil {
		return model.Tokens{}, nil, err
	}
	return tokens, u, nil
}

// Refresh verifies a refresh token (signature, expiry and token type) and
// issues a fresh pair for its subject.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (model.Tokens, *model.User, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return model.Tokens{}, nil, errs.ErrInvalidRefreshToken
	}

	claims, err := s.parseToken(refreshToken)
	if err != nil || claims.TokenType != tokenTypeRefresh {
		return model.Tokens{}, nil, errs.ErrInvalidRefreshToken
	}
	userID, err := uuid.FromString(claims.Subject)
	if err != nil {
		return model.Tokens{}, nil, errs.ErrInvalidRefreshToken
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.Tokens{}, nil, errs.ErrInvalidRefreshToken
	}

	tokens, err := s.issueTokens(u.ID)
	if err != nil {
		return model.Tokens{}, nil, err
	}
	return tokens, u, nil
}

// CurrentUser loads the authenticated principal.
func (s *AuthServiceImpl) CurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Claims are the JWT claims carried by both token types.
type Claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// ParseAccessToken verifies an access token and returns its subject.
// Used by the HTTP auth middleware.
func (s *AuthServiceImpl) ParseAccessToken(token string) (uuid.UUID, error) {
	claims, err := s.parseToken(token)
	if err != nil || claims.TokenType != tokenTypeAccess {
		return uuid.Nil, errs.ErrAccessDenied
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, errs.ErrAccessDenied
	}
	return id, nil
}

func (s *AuthServiceImpl) parseToken(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.signKey, nil
	})
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

// issueTokens creates a signed HS256 access/refresh pair for the subject.
func (s *AuthServiceImpl) issueTokens(userID uuid.UUID) (model.Tokens, error) {
	now := time.Now()
	accessExp := now.Add(s.accessTTL)

	access, err := s.signToken(userID, tokenTypeAccess, now, accessExp)
	if err != nil {
		return model.Tokens{}, err
	}
	refresh, err := s.signToken(userID, tokenTypeRefresh, now, now.Add(s.refreshTTL))
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: access, RefreshToken: refresh, ExpiresAt: accessExp}, nil
}

func (s *AuthServiceImpl) signToken(userID uuid.UUID, typ string, now, exp time.Time) (string, error) {
	claims := Claims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.signKey)
}

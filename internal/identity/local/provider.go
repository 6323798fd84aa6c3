package local

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/himap/directory/internal/clock"
	"github.com/himap/directory/internal/config"
	"github.com/himap/directory/internal/identity/domain"
	"github.com/himap/directory/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minPasswordLength = 6

// Provider is a self-hosted identity backend: accounts in auth_users,
// argon2id passwords and HS256 access tokens.
type Provider struct {
	db     *gorm.DB
	log    *zap.Logger
	secret []byte
	issuer string
	ttl    time.Duration
	clock  clock.Clock
}

type Option func(*Provider)

func WithClock(c clock.Clock) Option {
	return func(p *Provider) {
		if c != nil {
			p.clock = c
		}
	}
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func New(conn *gorm.DB, log *zap.Logger, cfg config.Config, opts ...Option) (*Provider, error) {
	log = log.Named("identity.local")

	secret := []byte(cfg.Identity.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		log.Warn("AUTH_JWT_SECRET not set; using an ephemeral signing key, tokens will not survive a restart")
	}

	ttl := cfg.Identity.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	p := &Provider{
		db:     conn,
		log:    log,
		secret: secret,
		issuer: cfg.Identity.JWTIssuer,
		ttl:    ttl,
		clock:  clock.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// VerifyToken validates the signature, issuer and expiry, then checks that
// the identity still exists.
func (p *Provider) VerifyToken(ctx context.Context, token string) (*domain.Identity, error) {
	parsed := &claims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), parsed,
		func(*jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}

	user, err := p.findBy(ctx, "id = ?", parsed.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: identity no longer exists", domain.ErrInvalidToken)
	}
	return &domain.Identity{ID: user.ID, Email: user.Email}, nil
}

func (p *Provider) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.Identity, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, &domain.RejectedError{Message: "Unable to validate email address: invalid format"}
	}
	if len(req.Password) < minPasswordLength {
		return nil, &domain.RejectedError{Message: fmt.Sprintf("Password should be at least %d characters.", minPasswordLength)}
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := p.clock.Now().UTC()
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.EmailConfirmed {
		user.EmailConfirmedAt = &now
	}

	if err := p.db.WithContext(ctx).Create(&user).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, &domain.RejectedError{Message: "A user with this email address has already been registered"}
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	return &domain.Identity{ID: user.ID, Email: user.Email}, nil
}

func (p *Provider) DeleteUser(ctx context.Context, id string) error {
	result := p.db.WithContext(ctx).Where("id = ?", id).Delete(&User{})
	if result.Error != nil {
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

// Login exchanges email and password for an access token.
func (p *Provider) Login(ctx context.Context, email, password string) (*Token, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	user, err := p.findBy(ctx, "email = ?", normalized)
	if err != nil {
		return nil, err
	}
	if user == nil || !VerifyPassword(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return p.IssueToken(domain.Identity{ID: user.ID, Email: user.Email})
}

func (p *Provider) IssueToken(identity domain.Identity) (*Token, error) {
	now := p.clock.Now().UTC()
	expiresAt := now.Add(p.ttl)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}).SignedString(p.secret)
	if err != nil {
		return nil, err
	}

	return &Token{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int(p.ttl.Seconds()),
		ExpiresAt:   expiresAt.Unix(),
		User:        UserView{ID: identity.ID, Email: identity.Email},
	}, nil
}

func (p *Provider) findBy(ctx context.Context, where string, args ...any) (*User, error) {
	var users []User
	if err := p.db.WithContext(ctx).Where(where, args...).Limit(1).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if addr.Name != "" || !strings.Contains(addr.Address, "@") {
		return "", errors.New("invalid email")
	}
	return strings.ToLower(addr.Address), nil
}

var _ domain.Provider = (*Provider)(nil)

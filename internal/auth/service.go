package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	"github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/database"
	"golang.org/x/crypto/bcrypt"
)

const revokedKeyPrefix = "auth:revoked:"

// ErrDuplicateEmail is returned by repositories when the unique email index rejects an insert.
var ErrDuplicateEmail = errors.New("duplicate email")

type RepositoryAPI interface {
	// GetUserByEmail and GetUserByID return nil without error when nothing matches.
	GetUserByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetUserByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	CreateUser(ctx context.Context, u *userDatamodel.User) error
}

// BalanceProvisioner creates the starting leave balance for a new account.
type BalanceProvisioner interface {
	Provision(ctx context.Context, userID int64) error
}

type ProvisionerFunc func(ctx context.Context, userID int64) error

func (f ProvisionerFunc) Provision(ctx context.Context, userID int64) error {
	return f(ctx, userID)
}

// RevocationStore remembers logged-out token ids until they expire.
type RevocationStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Service is the main auth service with dependencies
type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGenerator
	txManager      database.TxManager
	balances       BalanceProvisioner
	revoked        RevocationStore
	bcryptCost     int
	logger         *slog.Logger
}

type ServiceOption func(*Service)

func WithBCryptCost(cost int) ServiceOption {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

// WithRevocationStore enables server-side logout. Without it logout only
// validates the presented token.
func WithRevocationStore(store RevocationStore) ServiceOption {
	return func(s *Service) {
		s.revoked = store
	}
}

// NewService creates a new auth service
func NewService(repo RepositoryAPI, tokenGen TokenGenerator, txManager database.TxManager, balances BalanceProvisioner, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		txManager:      txManager,
		balances:       balances,
		bcryptCost:     bcrypt.DefaultCost,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an employee account together with its leave balance and
// signs the new user in.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*user.Principal, AuthTokens, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, AuthTokens{}, err
	}

	existing, err := s.repo.GetUserByEmail(ctx, dto.Email)
	if err != nil {
		return nil, AuthTokens{}, internal.NewInternalError("failed to look up user", err)
	}
	if existing != nil {
		return nil, AuthTokens{}, internal.ErrEmailTaken
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return nil, AuthTokens{}, internal.NewInternalError("failed to hash password", err)
	}

	u := &userDatamodel.User{
		Email:        dto.Email,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		PasswordHash: hash,
		Role:         string(user.RoleEmployee),
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateUser(ctx, u); err != nil {
			return err
		}
		return s.balances.Provision(ctx, u.ID)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, AuthTokens{}, internal.ErrEmailTaken
		}
		if _, ok := internal.IsAppError(err); ok {
			return nil, AuthTokens{}, err
		}
		s.logger.Error("failed to register user", "email", dto.Email, "error", err)
		return nil, AuthTokens{}, internal.NewInternalError("failed to register user", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "email", u.Email)

	tokens, err := s.issueTokens(u)
	if err != nil {
		return nil, AuthTokens{}, err
	}
	return toPrincipal(u), tokens, nil
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(dto.Email)))
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to look up user", err)
	}
	if u == nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	s.logger.Info("user authenticated", "user_id", u.ID)
	return s.issueTokens(u)
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}
	if err := s.checkNotRevoked(ctx, claims); err != nil {
		return AuthTokens{}, err
	}

	u, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return AuthTokens{}, err
	}

	// the old refresh token is single use
	s.revoke(ctx, claims)
	return s.issueTokens(u)
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.tokenGenerator.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	if err := s.checkNotRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Logout revokes the access token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	s.revoke(ctx, claims)
	s.logger.Info("user logged out", "user_id", claims.UserID)
	return nil
}

// GetPrincipal loads the current identity and role for an authenticated user id.
func (s *Service) GetPrincipal(ctx context.Context, userID int64) (*user.Principal, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	return toPrincipal(u), nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) issueTokens(u *userDatamodel.User) (AuthTokens, error) {
	id := strconv.FormatInt(u.ID, 10)

	accessToken, err := s.tokenGenerator.GenerateAccessToken(id, u.Email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate access token", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(id, u.Email)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate refresh token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokenGenerator.AccessTTL().Seconds()),
	}, nil
}

func (s *Service) userFromClaims(ctx context.Context, claims *Claims) (*userDatamodel.User, error) {
	id, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, internal.ErrInvalidToken
	}
	return u, nil
}

func (s *Service) checkNotRevoked(ctx context.Context, claims *Claims) error {
	if s.revoked == nil || claims.ID == "" {
		return nil
	}
	revoked, err := s.revoked.Exists(ctx, revokedKeyPrefix+claims.ID)
	if err != nil {
		// fail open while the cache is down
		s.logger.Warn("token revocation lookup failed", "error", err)
		return nil
	}
	if revoked {
		return internal.ErrInvalidToken
	}
	return nil
}

func (s *Service) revoke(ctx context.Context, claims *Claims) {
	if s.revoked == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return
	}
	if err := s.revoked.Set(ctx, revokedKeyPrefix+claims.ID, []byte(claims.UserID), ttl); err != nil {
		s.logger.Warn("failed to revoke token", "user_id", claims.UserID, "error", err)
	}
}

func toPrincipal(u *userDatamodel.User) *user.Principal {
	core := user.User{Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
	return &user.Principal{
		ID:    u.ID,
		Email: u.Email,
		Name:  core.DisplayName(),
		Role:  user.ParseRole(u.Role),
	}
}

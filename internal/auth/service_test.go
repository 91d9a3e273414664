package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	"github.com/frahmantamala/leave-management/internal/core/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAccessSecret  = "access-secret-for-tests-0123456789abcdef"
	testRefreshSecret = "refresh-secret-for-tests-0123456789abcdef"
)

// Mock repository for testing
type mockUserRepository struct {
	byEmail   map[string]*userDatamodel.User
	byID      map[int64]*userDatamodel.User
	nextID    int64
	createErr error
	lookupErr error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		byEmail: make(map[string]*userDatamodel.User),
		byID:    make(map[int64]*userDatamodel.User),
		nextID:  1,
	}
}

func (m *mockUserRepository) add(email, password string, role user.Role) *userDatamodel.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &userDatamodel.User{
		ID:           m.nextID,
		Email:        email,
		FirstName:    "Test",
		PasswordHash: string(hash),
		Role:         string(role),
	}
	m.nextID++
	m.byEmail[email] = u
	m.byID[u.ID] = u
	return u
}

func (m *mockUserRepository) GetUserByEmail(_ context.Context, email string) (*userDatamodel.User, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.byEmail[email], nil
}

func (m *mockUserRepository) GetUserByID(_ context.Context, id int64) (*userDatamodel.User, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.byID[id], nil
}

func (m *mockUserRepository) CreateUser(_ context.Context, u *userDatamodel.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, taken := m.byEmail[u.Email]; taken {
		return ErrDuplicateEmail
	}
	u.ID = m.nextID
	m.nextID++
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
	return nil
}

type passthroughTx struct {
	calls int
}

func (p *passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

type memoryRevocations struct {
	mu      sync.Mutex
	keys    map[string]time.Duration
	failGet bool
}

func newMemoryRevocations() *memoryRevocations {
	return &memoryRevocations{keys: make(map[string]time.Duration)}
}

func (m *memoryRevocations) Set(_ context.Context, key string, _ []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = ttl
	return nil
}

func (m *memoryRevocations) Exists(_ context.Context, key string) (bool, error) {
	if m.failGet {
		return false, errors.New("redis: connection refused")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[key]
	return ok, nil
}

var _ = Describe("Auth Service", func() {
	var (
		ctx         context.Context
		repo        *mockUserRepository
		tx          *passthroughTx
		revocations *memoryRevocations
		provisioned []int64
		provisionFn ProvisionerFunc
		service     *Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockUserRepository()
		tx = &passthroughTx{}
		revocations = newMemoryRevocations()
		provisioned = nil
		provisionFn = func(_ context.Context, userID int64) error {
			provisioned = append(provisioned, userID)
			return nil
		}

		gen := NewJWTTokenGenerator(testAccessSecret, testRefreshSecret, 15*time.Minute, time.Hour)
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = NewService(repo, gen, tx, provisionFn, logger,
			WithBCryptCost(bcrypt.MinCost),
			WithRevocationStore(revocations),
		)
	})

	Describe("Register", func() {
		It("creates an employee and provisions a balance in the same transaction", func() {
			principal, tokens, err := service.Register(ctx, RegisterDTO{
				Email:     "  New.Person@Example.com ",
				Password:  "s3cretpass",
				FirstName: "New",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(principal.Email).To(Equal("new.person@example.com"))
			Expect(principal.Role).To(Equal(user.RoleEmployee))
			Expect(principal.Name).To(Equal("New"))
			Expect(tokens.AccessToken).NotTo(BeEmpty())
			Expect(tokens.RefreshToken).NotTo(BeEmpty())
			Expect(tokens.TokenType).To(Equal("Bearer"))
			Expect(tokens.ExpiresIn).To(Equal(int64(900)))

			Expect(tx.calls).To(Equal(1))
			Expect(provisioned).To(ConsistOf(principal.ID))
		})

		It("rejects an email that is already registered", func() {
			repo.add("taken@example.com", "whatever1", user.RoleEmployee)

			_, _, err := service.Register(ctx, RegisterDTO{Email: "taken@example.com", Password: "s3cretpass"})
			Expect(err).To(MatchError(internal.ErrEmailTaken))
			Expect(provisioned).To(BeEmpty())
		})

		It("maps a unique index violation to email taken", func() {
			repo.createErr = ErrDuplicateEmail

			_, _, err := service.Register(ctx, RegisterDTO{Email: "race@example.com", Password: "s3cretpass"})
			Expect(err).To(MatchError(internal.ErrEmailTaken))
		})

		It("fails validation for a short password", func() {
			_, _, err := service.Register(ctx, RegisterDTO{Email: "short@example.com", Password: "abc"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
			Expect(tx.calls).To(BeZero())
		})

		It("surfaces a provisioning failure as an internal error", func() {
			service.balances = ProvisionerFunc(func(context.Context, int64) error {
				return errors.New("insert failed")
			})

			_, _, err := service.Register(ctx, RegisterDTO{Email: "p@example.com", Password: "s3cretpass"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
		})
	})

	Describe("Authenticate", func() {
		BeforeEach(func() {
			repo.add("user@example.com", "correct_password", user.RoleEmployee)
		})

		It("issues tokens for valid credentials", func() {
			tokens, err := service.Authenticate(ctx, LoginDTO{Email: "USER@example.com", Password: "correct_password"})
			Expect(err).NotTo(HaveOccurred())

			claims, err := service.ValidateAccessToken(ctx, tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal("1"))
			Expect(claims.Email).To(Equal("user@example.com"))
		})

		It("rejects a wrong password", func() {
			_, err := service.Authenticate(ctx, LoginDTO{Email: "user@example.com", Password: "nope"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("does not reveal whether the email exists", func() {
			_, err := service.Authenticate(ctx, LoginDTO{Email: "ghost@example.com", Password: "nope"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("requires both fields", func() {
			_, err := service.Authenticate(ctx, LoginDTO{Email: "user@example.com"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("wraps repository failures", func() {
			repo.lookupErr = errors.New("db down")
			_, err := service.Authenticate(ctx, LoginDTO{Email: "user@example.com", Password: "correct_password"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
		})
	})

	Describe("RefreshTokens", func() {
		var tokens AuthTokens

		BeforeEach(func() {
			repo.add("user@example.com", "correct_password", user.RoleEmployee)
			var err error
			tokens, err = service.Authenticate(ctx, LoginDTO{Email: "user@example.com", Password: "correct_password"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rotates the token pair and burns the old refresh token", func() {
			fresh, err := service.RefreshTokens(ctx, tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(fresh.RefreshToken).NotTo(Equal(tokens.RefreshToken))

			_, err = service.RefreshTokens(ctx, tokens.RefreshToken)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})

		It("refuses an access token in place of a refresh token", func() {
			_, err := service.RefreshTokens(ctx, tokens.AccessToken)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})

		It("refuses a token for a deleted user", func() {
			delete(repo.byID, 1)
			_, err := service.RefreshTokens(ctx, tokens.RefreshToken)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})
	})

	Describe("Logout", func() {
		It("revokes the access token for its remaining lifetime", func() {
			repo.add("user@example.com", "correct_password", user.RoleEmployee)
			tokens, err := service.Authenticate(ctx, LoginDTO{Email: "user@example.com", Password: "correct_password"})
			Expect(err).NotTo(HaveOccurred())

			claims, err := service.ValidateAccessToken(ctx, tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(service.Logout(ctx, claims)).To(Succeed())

			Expect(revocations.keys).To(HaveKey(revokedKeyPrefix + claims.ID))
			Expect(revocations.keys[revokedKeyPrefix+claims.ID]).To(BeNumerically("<=", 15*time.Minute))

			_, err = service.ValidateAccessToken(ctx, tokens.AccessToken)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})

		It("keeps accepting tokens when the revocation store is unreachable", func() {
			repo.add("user@example.com", "correct_password", user.RoleEmployee)
			tokens, err := service.Authenticate(ctx, LoginDTO{Email: "user@example.com", Password: "correct_password"})
			Expect(err).NotTo(HaveOccurred())

			revocations.failGet = true
			_, err = service.ValidateAccessToken(ctx, tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("GetPrincipal", func() {
		It("reads the current role from the store", func() {
			u := repo.add("boss@example.com", "correct_password", user.RoleManager)

			p, err := service.GetPrincipal(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.IsManager()).To(BeTrue())
		})

		It("returns user not found for an unknown id", func() {
			_, err := service.GetPrincipal(ctx, 99)
			Expect(err).To(MatchError(internal.ErrUserNotFound))
		})
	})
})

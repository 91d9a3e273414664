package user_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/user"
	"github.com/frahmantamala/leave-management/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("User Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		service *user.Service
		alex    *userDatamodel.User
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&userDatamodel.User{})).To(Succeed())

		alex = &userDatamodel.User{Email: "alex@example.com", FirstName: "Alex", LastName: "Kim", PasswordHash: "secret-hash", Role: "employee"}
		Expect(db.Create(alex).Error).To(Succeed())

		service = user.NewService(postgres.NewUserRepository(db), slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	Describe("GetByID", func() {
		It("returns the public view of the account", func() {
			u, err := service.GetByID(ctx, alex.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal("alex@example.com"))
			Expect(u.DisplayName).To(Equal("Alex Kim"))
			Expect(u.Role).To(Equal(coreUser.RoleEmployee))
			Expect(u.IsManager()).To(BeFalse())

			raw, err := json.Marshal(u)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).NotTo(ContainSubstring("secret-hash"))
		})

		It("returns not found for a missing user", func() {
			_, err := service.GetByID(ctx, 404)
			Expect(err).To(MatchError(internal.ErrUserNotFound))
		})
	})

	Describe("ToggleRole", func() {
		It("flips employee to manager and back", func() {
			p := &coreUser.Principal{ID: alex.ID, Role: coreUser.RoleEmployee}

			u, err := service.ToggleRole(ctx, p)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Role).To(Equal(coreUser.RoleManager))

			u, err = service.ToggleRole(ctx, p)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Role).To(Equal(coreUser.RoleEmployee))
		})

		It("requires a principal", func() {
			_, err := service.ToggleRole(ctx, nil)
			Expect(err).To(MatchError(internal.ErrUnauthenticated))
		})

		It("reports a vanished account as not found", func() {
			_, err := service.ToggleRole(ctx, &coreUser.Principal{ID: 999, Role: coreUser.RoleEmployee})
			Expect(err).To(MatchError(internal.ErrUserNotFound))
		})
	})

	Describe("Handler", func() {
		var handler *user.Handler

		BeforeEach(func() {
			handler = user.NewHandler(service)
		})

		serve := func(h http.HandlerFunc, method string, p *coreUser.Principal) *httptest.ResponseRecorder {
			req := httptest.NewRequest(method, "/users/me", nil)
			if p != nil {
				req = req.WithContext(auth.WithUser(req.Context(), p))
			}
			w := httptest.NewRecorder()
			h(w, req)
			return w
		}

		It("returns the current user", func() {
			w := serve(handler.GetCurrentUser, http.MethodGet, &coreUser.Principal{ID: alex.ID, Role: coreUser.RoleEmployee})
			Expect(w.Code).To(Equal(http.StatusOK))

			var u user.User
			Expect(json.NewDecoder(w.Body).Decode(&u)).To(Succeed())
			Expect(u.ID).To(Equal(alex.ID))
		})

		It("announces the new role after toggling", func() {
			w := serve(handler.ToggleRole, http.MethodPost, &coreUser.Principal{ID: alex.ID, Role: coreUser.RoleEmployee})
			Expect(w.Code).To(Equal(http.StatusOK))

			var body struct {
				User    user.User `json:"user"`
				Message string    `json:"message"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
			Expect(body.User.Role).To(Equal(coreUser.RoleManager))
			Expect(body.Message).To(Equal("Role switched to manager"))
		})

		It("returns 401 without a principal", func() {
			Expect(serve(handler.GetCurrentUser, http.MethodGet, nil).Code).To(Equal(http.StatusUnauthorized))
		})
	})
})

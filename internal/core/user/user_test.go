package user_test

import (
	"github.com/frahmantamala/leave-management/internal/core/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Role", func() {
	DescribeTable("ParseRole",
		func(in string, want user.Role, valid bool) {
			r := user.ParseRole(in)
			Expect(r).To(Equal(want))
			Expect(r.Valid()).To(Equal(valid))
		},
		Entry("empty defaults to employee", "", user.RoleEmployee, true),
		Entry("employee", "employee", user.RoleEmployee, true),
		Entry("manager with noise", " Manager ", user.RoleManager, true),
		Entry("unknown is kept", "auditor", user.Role("auditor"), false),
	)

	It("toggles between the two roles", func() {
		Expect(user.RoleEmployee.Toggle()).To(Equal(user.RoleManager))
		Expect(user.RoleManager.Toggle()).To(Equal(user.RoleEmployee))
		Expect(user.Role("auditor").Toggle()).To(Equal(user.RoleEmployee))
	})
})

var _ = Describe("DisplayName", func() {
	It("joins first and last name", func() {
		u := user.User{Email: "jo@example.com", FirstName: "Jo", LastName: "Park"}
		Expect(u.DisplayName()).To(Equal("Jo Park"))
	})

	It("uses whichever name is present", func() {
		u := user.User{Email: "jo@example.com", LastName: "Park"}
		Expect(u.DisplayName()).To(Equal("Park"))
	})

	It("falls back to the email", func() {
		u := user.User{Email: "jo@example.com"}
		Expect(u.DisplayName()).To(Equal("jo@example.com"))
	})
})

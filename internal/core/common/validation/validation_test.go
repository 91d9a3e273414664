package validation_test

import (
	"strings"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func fieldErrors(appErr *internal.AppError) []internal.ValidationError {
	Expect(appErr).NotTo(BeNil())
	Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
	details, ok := appErr.Details.(internal.ValidationErrors)
	Expect(ok).To(BeTrue())
	return details.Errors
}

var _ = Describe("ValidationBuilder", func() {
	It("passes when every rule holds", func() {
		v := validation.NewValidator()
		v.Field("email", "jo@example.com").Required().Email()
		v.Field("leave_type", "sick").OneOf([]string{"sick", "vacation"}, internal.ErrCodeInvalidLeaveType)
		v.Field("start_date", "2025-02-28").Date()
		Expect(v.Validate()).To(BeNil())
	})

	It("collects failures from every field", func() {
		v := validation.NewValidator()
		v.Field("email", "").Required().Email()
		v.Field("password", "short").MinLength(8)
		v.Field("reason", strings.Repeat("x", 11)).MaxLength(10)

		errs := fieldErrors(v.Validate())
		Expect(errs).To(HaveLen(3))
		Expect(errs[0]).To(Equal(internal.ValidationError{Field: "email", Message: "email is required", Code: "VALIDATION_FAILED"}))
		Expect(errs[1].Field).To(Equal("password"))
		Expect(errs[2].Message).To(Equal("reason must not exceed 10 characters"))
	})

	It("treats whitespace as missing", func() {
		v := validation.NewValidator()
		v.Field("reason", "   ").Required()
		Expect(fieldErrors(v.Validate())).To(HaveLen(1))
	})

	It("tags OneOf failures with the supplied code", func() {
		v := validation.NewValidator()
		v.Field("leave_type", "unpaid").OneOf([]string{"sick", "vacation", "personal"}, internal.ErrCodeInvalidLeaveType)

		errs := fieldErrors(v.Validate())
		Expect(errs[0].Code).To(Equal("INVALID_LEAVE_TYPE"))
		Expect(errs[0].Message).To(Equal("leave_type must be one of: sick, vacation, personal"))
	})

	DescribeTable("Date",
		func(in string, ok bool) {
			v := validation.NewValidator()
			v.Field("start_date", in).Date()
			if ok {
				Expect(v.Validate()).To(BeNil())
				return
			}
			errs := fieldErrors(v.Validate())
			Expect(errs[0].Code).To(Equal("INVALID_DATE"))
		},
		Entry("iso date", "2025-01-31", true),
		Entry("empty is left to Required", "", true),
		Entry("impossible day", "2025-02-30", false),
		Entry("other layout", "31/01/2025", false),
		Entry("timestamp", "2025-01-31T10:00:00Z", false),
	)

	DescribeTable("Email",
		func(in string, ok bool) {
			v := validation.NewValidator()
			v.Field("email", in).Email()
			Expect(v.Validate() == nil).To(Equal(ok))
		},
		Entry("plain", "a@b.co", true),
		Entry("no at", "ab.co", false),
		Entry("leading at", "@b.co", false),
		Entry("trailing at", "a@", false),
		Entry("space", "a b@c.co", false),
	)
})

var _ = Describe("Dates", func() {
	It("parses calendar dates in UTC", func() {
		d, err := validation.ParseDate(" 2025-03-09 ")
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)))
	})

	It("accepts a single-day range and rejects an inverted one", func() {
		d := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
		Expect(validation.ValidateDateRange(d, d)).To(BeNil())
		Expect(validation.ValidateDateRange(d, d.AddDate(0, 0, -1))).To(MatchError(internal.ErrInvalidDateRange))
	})
})

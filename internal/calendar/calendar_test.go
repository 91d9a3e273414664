package calendar_test

import (
	"time"

	"github.com/frahmantamala/leave-management/internal/balance"
	"github.com/frahmantamala/leave-management/internal/calendar"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	Expect(err).NotTo(HaveOccurred())
	return t
}

var _ = Describe("Calendar projection", func() {
	DescribeTable("ColorFor",
		func(c balance.Category, want string) {
			Expect(calendar.ColorFor(c)).To(Equal(want))
		},
		Entry("vacation", balance.CategoryVacation, "#3b82f6"),
		Entry("sick", balance.CategorySick, "#ef4444"),
		Entry("personal", balance.CategoryPersonal, "#8b5cf6"),
		Entry("anything else", balance.Category("unpaid"), "#8b5cf6"),
	)

	It("titles events with the first name and capitalised type", func() {
		e := calendar.ToEvent(calendar.ApprovedLeave{
			ID: 7, EmployeeID: 3, LeaveType: "vacation",
			StartDate: day("2025-07-01"), EndDate: day("2025-07-03"),
			FirstName: "Alex", Email: "alex@example.com",
		})
		Expect(e).To(Equal(calendar.Event{
			ID:         7,
			Title:      "Alex - Vacation",
			Start:      "2025-07-01",
			End:        "2025-07-03",
			Color:      "#3b82f6",
			LeaveType:  "vacation",
			EmployeeID: 3,
		}))
	})

	It("falls back to the email when there is no first name", func() {
		e := calendar.ToEvent(calendar.ApprovedLeave{
			LeaveType: "sick", StartDate: day("2025-07-01"), EndDate: day("2025-07-01"),
			Email: "sam@example.com",
		})
		Expect(e.Title).To(Equal("sam@example.com - Sick"))
	})

	It("keeps input order and returns an empty slice for no leave", func() {
		Expect(calendar.Project(nil)).To(BeEmpty())
		Expect(calendar.Project(nil)).NotTo(BeNil())

		events := calendar.Project([]calendar.ApprovedLeave{
			{ID: 2, LeaveType: "sick", StartDate: day("2025-01-02"), EndDate: day("2025-01-02")},
			{ID: 1, LeaveType: "personal", StartDate: day("2025-03-01"), EndDate: day("2025-03-01")},
		})
		Expect(events).To(HaveLen(2))
		Expect(events[0].ID).To(Equal(int64(2)))
		Expect(events[1].ID).To(Equal(int64(1)))
	})
})

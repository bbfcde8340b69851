package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/asetta/kivo/internal/models"
)

// ExportICS serializes the assessment list as an iCalendar document: one
// timed event per assessment with a one-hour nominal duration and a display
// reminder one hour before. Assessments with unparseable due dates are
// skipped rather than failing the whole export.
func ExportICS(semesterName string, assessments []models.Assessment) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//Asetta//Kivo//EN")
	cal.SetXWRCalName(semesterName)

	for i := range assessments {
		a := &assessments[i]
		due, err := a.DueAt()
		if err != nil {
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("kivo-%s", a.ID))
		event.SetDtStampTime(due)
		event.SetStartAt(due)
		event.SetEndAt(due.Add(time.Hour))
		event.SetSummary(fmt.Sprintf("%s: %s", a.CourseName, a.AssignmentName))
		event.SetDescription(fmt.Sprintf("Status: %s, weight: %g%%", a.Status, a.Weight))

		alarm := event.AddAlarm()
		alarm.SetProperty(ical.ComponentProperty(ical.PropertyAction), string(ical.ActionDisplay))
		alarm.SetProperty(ical.ComponentProperty(ical.PropertyTrigger), "-PT1H")
	}

	return cal.Serialize()
}

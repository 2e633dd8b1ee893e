package notify

import (
	"bytes"
	"fmt"
	htmltmpl "html/template"
	"net/mail"
	texttmpl "text/template"
	"time"

	"github.com/noah-isme/bps-routine/internal/models"
)

// DutyNotice tells a substitute which class they take over.
type DutyNotice struct {
	AbsenceID  string
	School     string
	Date       time.Time
	Substitute models.TeacherRef
	Absent     models.TeacherRef
	LeaveType  models.LeaveType
	Entry      models.ScheduleEntry
}

const dutyText = `Dear {{.Substitute}},

You are assigned to take {{.Entry.Class}}{{if .Entry.Section}} ({{.Entry.Section}}){{end}} on {{.Day}}, {{.DateLabel}}
from {{.Entry.Start}} to {{.Entry.End}}{{if .Entry.Subject}} ({{.Entry.Subject}}){{end}} in place of {{.Absent}}.
{{if .School}}
{{.School}}
{{end}}`

const dutyHTML = `<p>Dear {{.Substitute}},</p>
<p>You are assigned to take <strong>{{.Entry.Class}}{{if .Entry.Section}} ({{.Entry.Section}}){{end}}</strong>
on {{.Day}}, {{.DateLabel}} from <strong>{{.Entry.Start}}</strong> to <strong>{{.Entry.End}}</strong>{{if .Entry.Subject}} ({{.Entry.Subject}}){{end}}
in place of {{.Absent}}.</p>
{{if .School}}<p>{{.School}}</p>{{end}}`

var (
	dutyTextTmpl = texttmpl.Must(texttmpl.New("duty.txt").Option("missingkey=error").Parse(dutyText))
	dutyHTMLTmpl = htmltmpl.Must(htmltmpl.New("duty.gohtml").Option("missingkey=error").Parse(dutyHTML))
)

type dutyView struct {
	DutyNotice
	Day       string
	DateLabel string
}

// Render builds the email for the notice. A substitute without an email address yields
// a message with no recipients.
func (n DutyNotice) Render() (Message, error) {
	view := dutyView{
		DutyNotice: n,
		Day:        n.Date.Weekday().String(),
		DateLabel:  n.Date.Format("02-01-2006"),
	}
	var text, html bytes.Buffer
	if err := dutyTextTmpl.Execute(&text, view); err != nil {
		return Message{}, fmt.Errorf("render duty notice text: %w", err)
	}
	if err := dutyHTMLTmpl.Execute(&html, view); err != nil {
		return Message{}, fmt.Errorf("render duty notice html: %w", err)
	}
	msg := Message{
		Subject: fmt.Sprintf("Substitution duty %s %s", view.DateLabel, n.Entry.Start),
		Text:    text.String(),
		HTML:    html.String(),
	}
	if n.Substitute.Email != "" {
		msg.To = []mail.Address{{Name: n.Substitute.DisplayName, Address: n.Substitute.Email}}
	}
	return msg, nil
}

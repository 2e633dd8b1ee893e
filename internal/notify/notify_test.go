package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/bps-routine/internal/models"
)

func sampleNotice() DutyNotice {
	return DutyNotice{
		AbsenceID:  "abs-1",
		School:     "Bidhannagar Public School",
		Date:       time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Substitute: models.TeacherRef{Code: "RS", DisplayName: "Rohini Singh", Email: "rohini@example.org"},
		Absent:     models.TeacherRef{Code: "TR", DisplayName: "Tapasi Rana"},
		LeaveType:  models.LeaveCasual,
		Entry: models.ScheduleEntry{
			TeacherCode: "TR",
			TimeSlot:    models.TimeSlot{Day: models.Monday, Start: models.MustParseClock("11:15"), End: models.MustParseClock("12:00")},
			Class:       "CLASS III",
			Section:     "A",
			Subject:     "Math",
		},
	}
}

func TestDutyNoticeRender(t *testing.T) {
	msg, err := sampleNotice().Render()
	require.NoError(t, err)

	require.Len(t, msg.To, 1)
	assert.Equal(t, "rohini@example.org", msg.To[0].Address)
	assert.Equal(t, "Substitution duty 05-01-2026 11:15", msg.Subject)
	assert.Contains(t, msg.Text, "Dear Rohini Singh")
	assert.Contains(t, msg.Text, "CLASS III (A) on Monday, 05-01-2026")
	assert.Contains(t, msg.Text, "in place of Tapasi Rana")
	assert.Contains(t, msg.HTML, "<strong>11:15</strong>")
}

func TestDutyNoticeWithoutEmailHasNoRecipients(t *testing.T) {
	n := sampleNotice()
	n.Substitute.Email = ""
	msg, err := n.Render()
	require.NoError(t, err)
	assert.False(t, msg.HasRecipients())
	assert.True(t, msg.HasContent())
}

func TestDutyNoticeEscapesHTML(t *testing.T) {
	n := sampleNotice()
	n.Entry.Subject = "<script>"
	msg, err := n.Render()
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.Text, "<script>")
}

func TestSendGridSenderPostsMail(t *testing.T) {
	var captured map[string]interface{}
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := NewSendGridSender("key-1", server.URL, mail.Address{Name: "Routine", Address: "office@example.org"}, "[BPS] ")
	msg, err := sampleNotice().Render()
	require.NoError(t, err)
	require.NoError(t, sender.Send(context.Background(), msg))

	assert.Equal(t, "Bearer key-1", auth)
	personalizations, ok := captured["personalizations"].([]interface{})
	require.True(t, ok)
	require.Len(t, personalizations, 1)
	first := personalizations[0].(map[string]interface{})
	assert.Equal(t, "[BPS] Substitution duty 05-01-2026 11:15", first["subject"])
	from := captured["from"].(map[string]interface{})
	assert.Equal(t, "office@example.org", from["email"])
}

func TestSendGridSenderReportsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer server.Close()

	sender := NewSendGridSender("bad", server.URL, mail.Address{Address: "office@example.org"}, "")
	msg, err := sampleNotice().Render()
	require.NoError(t, err)
	err = sender.Send(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestSendGridSenderSkipsEmptyMessages(t *testing.T) {
	sender := NewSendGridSender("key", "http://127.0.0.1:1", mail.Address{Address: "office@example.org"}, "")
	assert.NoError(t, sender.Send(context.Background(), Message{Subject: "nobody"}))
}

func TestLogSenderRecords(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sender := NewLogSender(zap.New(core))
	msg, err := sampleNotice().Render()
	require.NoError(t, err)

	require.NoError(t, sender.Send(context.Background(), msg))
	require.Len(t, sender.Sent(), 1)
	require.Equal(t, 1, logs.FilterMessage("duty notice").Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, msg.Subject, fields["subject"])
}

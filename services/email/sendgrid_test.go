package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/testutil"
)

func TestSendgridService_prepare(t *testing.T) {
	conf := testutil.Config()
	conf.AppName = "Al Noor Admin"

	t.Run("fee reminder", func(t *testing.T) {
		svc := NewSendgridService(conf, &testutil.Logger{})
		m := svc.prepare(core.EmailMessage{
			To:           []mail.Address{{Name: "Father 1", Address: "father1@madrasa.test"}},
			Subject:      "Fee reminder for Student 1",
			TemplateName: "fee_reminder",
			TextContent:  "1000 is pending",
			HTMLContent:  "<p>1000 is pending</p>",
			Metadata:     map[string]string{"student_id": "s1", "roll_number": "1"},
		})

		assert.Equal(t, "Al-Noor Madrasa", m.From.Name)
		assert.Equal(t, "noreply@madrasa.test", m.From.Address)
		assert.Equal(t, []string{"al-noor-admin", "fee_reminder"}, m.Categories)

		require.Len(t, m.Personalizations, 1)
		p := m.Personalizations[0]
		assert.Equal(t, "[Al Noor Admin] Fee reminder for Student 1", p.Subject)
		require.Len(t, p.To, 1)
		assert.Equal(t, "father1@madrasa.test", p.To[0].Address)
		assert.Equal(t, map[string]string{"student_id": "s1", "roll_number": "1"}, p.CustomArgs)

		require.Len(t, m.Content, 2)
		assert.Equal(t, "text/plain", m.Content[0].Type)
		assert.Equal(t, "text/html", m.Content[1].Type)

		require.NotNil(t, m.MailSettings)
		require.NotNil(t, m.MailSettings.SandboxMode)
		assert.True(t, *m.MailSettings.SandboxMode.Enable, "test mode never delivers")
	})

	t.Run("register with attachment only", func(t *testing.T) {
		live := *conf
		live.TestMode = false
		svc := NewSendgridService(&live, &testutil.Logger{})

		msg := core.EmailMessage{
			To:      []mail.Address{{Address: "bursar@madrasa.test"}},
			Subject: "Monthly Fee Register - March 2025",
		}
		require.NoError(t, msg.Attach(strings.NewReader("Roll #,Student Name\n1,Student 1\n"), "march.csv", "text/csv"))
		m := svc.prepare(msg)

		assert.Equal(t, []string{"al-noor-admin"}, m.Categories)
		assert.Nil(t, m.MailSettings)
		require.Len(t, m.Content, 1)
		assert.Equal(t, "Monthly Fee Register - March 2025", m.Content[0].Value)
		require.Len(t, m.Attachments, 1)
		assert.Equal(t, "march.csv", m.Attachments[0].Filename)
		assert.Equal(t, "text/csv", m.Attachments[0].Type)
		assert.Equal(t, "attachment", m.Attachments[0].Disposition)
	})
}

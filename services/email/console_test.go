package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/solarsys/core"
	appfs "github.com/trezcool/solarsys/fs"
	testutil "github.com/trezcool/solarsys/tests"
)

func TestConsoleService_SendMessages(t *testing.T) {
	conf := testutil.NewConfig()
	require.NoError(t, core.ParseEmailTemplates(appfs.FS, conf))
	svc := NewConsoleServiceMock(conf)

	to := []mail.Address{{Name: "Ada", Address: "ada@test.io"}}
	svc.SendMessages(
		&core.EmailMessage{To: to, Subject: "plain", BodyStr: "hello"},
		&core.EmailMessage{
			To:           to,
			Subject:      "Welcome aboard!",
			TemplateName: "welcome",
			TemplateData: map[string]interface{}{"Name": "Ada", "IsTeacher": false},
		},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "lost"},
		&core.EmailMessage{To: to, Subject: "unknown template", TemplateName: "lol"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "hello", sent[0].TextContent)
	assert.Empty(t, sent[0].HTMLContent)
	assert.Contains(t, sent[1].TextContent, "Hi Ada")
	assert.Contains(t, sent[1].TextContent, conf.FrontendBaseURL)
	assert.Contains(t, sent[1].HTMLContent, "Ada")

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

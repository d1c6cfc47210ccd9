package mail

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhangyu-521/blog-system/internal/config"
)

func TestNewPicksLogMailerWithoutHost(t *testing.T) {
	m := New(config.Mail{}, "http://localhost:8431", zap.NewNop().Sugar())
	_, ok := m.(*LogMailer)
	assert.True(t, ok)

	m = New(config.Mail{Host: "smtp.example.com"}, "http://localhost:8431", zap.NewNop().Sugar())
	_, ok = m.(*SMTPMailer)
	assert.True(t, ok)
}

func TestResetTemplateEscapesToken(t *testing.T) {
	var body bytes.Buffer
	err := resetTmpl.Execute(&body, struct{ ResetURL string }{`http://x/reset?token=abc"><script>`})
	require.NoError(t, err)
	assert.NotContains(t, body.String(), "<script>")
}

func TestLogMailerNeverFails(t *testing.T) {
	m := NewLogMailer(zap.NewNop().Sugar())
	assert.NoError(t, m.SendPasswordResetEmail(context.Background(), "a@b.c", "tok"))
	assert.NoError(t, m.SendWelcomeEmail(context.Background(), "a@b.c", "alice"))
}

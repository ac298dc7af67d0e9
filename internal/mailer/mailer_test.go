package mailer_test

import (
	"bufio"
	"context"
	"io"
	"mime/quotedprintable"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/passgate/internal/domain"
	"github.com/msomdec/passgate/internal/mailer"
)

func TestRender_EscapesData(t *testing.T) {
	html, err := mailer.Render(context.Background(), domain.TemplateSignup, map[string]string{
		"name": "<script>alert(1)</script>",
		"otp":  "123456",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "123456")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "<script>")
}

func TestRender_AllTemplates(t *testing.T) {
	data := map[string]string{"name": "Ada", "email": "ada@example.com", "otp": "654321"}
	for _, name := range []string{
		domain.TemplateSignup,
		domain.TemplateLogin,
		domain.TemplateForgotPassword,
		domain.TemplateResetPassword,
	} {
		t.Run(name, func(t *testing.T) {
			html, err := mailer.Render(context.Background(), name, data)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(html, "<!doctype html>"), "missing layout: %s", html)
			assert.Contains(t, html, "<p>Hi Ada,</p>")
			assert.Contains(t, html, "This is an automated message from Passgate.")
		})
	}
}

func TestRender_NoticeShowsEmail(t *testing.T) {
	html, err := mailer.Render(context.Background(), domain.TemplateLogin, map[string]string{"name": "Ada", "email": "ada@example.com"})
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>ada@example.com</strong>")
	assert.NotContains(t, html, "expires in 10 minutes")
}

func TestRender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mailer.Render(ctx, domain.TemplateSignup, map[string]string{"name": "Ada", "otp": "111111"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := mailer.Render(context.Background(), "nope", nil)
	assert.Error(t, err)
}

// fakeSMTP accepts one session and returns the DATA payload.
func fakeSMTP(t *testing.T) (int, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		reply := func(s string) { conn.Write([]byte(s + "\r\n")) }

		reply("220 localhost ESMTP")
		var data strings.Builder
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250-localhost")
				reply("250 8BITMIME")
			case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"),
				cmd == "NOOP", cmd == "RSET":
				reply("250 OK")
			case cmd == "DATA":
				reply("354 go ahead")
				for {
					l, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if l == ".\r\n" {
						break
					}
					data.WriteString(l)
				}
				reply("250 queued")
				got <- data.String()
			case cmd == "QUIT":
				reply("221 bye")
				return
			default:
				reply("502 unsupported")
			}
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port, got
}

func TestSMTPMailer_Send(t *testing.T) {
	port, got := fakeSMTP(t)
	m := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host: "127.0.0.1",
		Port: port,
		From: "noreply@passgate.test",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := m.Send(ctx, domain.Email{
		To:       "ada@example.com",
		Subject:  "Verify your email",
		Template: domain.TemplateSignup,
		Data:     map[string]string{"name": "Ada", "otp": "246810"},
	})
	require.NoError(t, err)

	select {
	case raw := <-got:
		headers, body, ok := strings.Cut(raw, "\r\n\r\n")
		require.True(t, ok, "message has no header/body separator")
		assert.Contains(t, headers, "To: <ada@example.com>")
		assert.Contains(t, headers, "From: <noreply@passgate.test>")
		assert.Contains(t, headers, "Message-ID: <")
		assert.Contains(t, headers, "Content-Transfer-Encoding: quoted-printable")

		decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(body)))
		require.NoError(t, err)
		assert.Contains(t, string(decoded), "246810")
	case <-ctx.Done():
		t.Fatal("fake server never received DATA")
	}
}

func TestSMTPMailer_RejectsHeaderInjection(t *testing.T) {
	m := mailer.NewSMTPMailer(mailer.SMTPConfig{Host: "127.0.0.1", Port: 1, From: "noreply@passgate.test"})
	err := m.Send(context.Background(), domain.Email{
		To:       "ada@example.com\r\nBcc: eve@example.com",
		Subject:  "hi",
		Template: domain.TemplateLogin,
	})
	assert.ErrorContains(t, err, "recipient address")
}

func TestSMTPMailer_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	m := mailer.NewSMTPMailer(mailer.SMTPConfig{Host: "127.0.0.1", Port: port, From: "noreply@passgate.test"})
	err = m.Send(context.Background(), domain.Email{To: "ada@example.com", Subject: "hi", Template: domain.TemplateLogin})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial failed")
}

func TestLogMailer(t *testing.T) {
	var m domain.Mailer = mailer.LogMailer{}
	assert.NoError(t, m.Send(context.Background(), domain.Email{To: "a@b.c", Template: domain.TemplateLogin}))
	assert.Error(t, m.Send(context.Background(), domain.Email{To: "a@b.c", Template: "missing"}))
}

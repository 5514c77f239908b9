package smtp

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

type fakeDialer struct {
	messages []*gomail.Message
	err      error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.messages = append(f.messages, m...)
	return f.err
}

func TestClient_Put(t *testing.T) {
	dialer := &fakeDialer{}
	client := NewClient(dialer, Options{From: "studio@example.com", To: "ops@example.com", Domain: "example.com"})
	assert.Equal(t, "mail", client.Name())

	location, err := client.Put(context.Background(), qr.Artifact{Key: "abc", Format: qr.FormatSVG, Data: []byte("<svg/>")})
	require.NoError(t, err)
	assert.Equal(t, "mailto:ops@example.com", location)

	require.Len(t, dialer.messages, 1)
	msg := dialer.messages[0]
	assert.Equal(t, []string{"ops@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"QR code abc"}, msg.GetHeader("Subject"))
	messageID := msg.GetHeader("Message-ID")[0]
	assert.True(t, strings.HasSuffix(messageID, "@example.com>"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `filename="abc.svg"`)
	assert.Contains(t, buf.String(), "image/svg+xml")
}

func TestClient_PutError(t *testing.T) {
	client := NewClient(&fakeDialer{err: errors.New("535 auth failed")}, Options{To: "a@b.c"})

	_, err := client.Put(context.Background(), qr.Artifact{Key: "k", Format: qr.FormatPNG})
	assert.ErrorContains(t, err, "535 auth failed")
}

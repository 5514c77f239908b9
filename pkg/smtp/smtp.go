package smtp

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Options struct {
	From   string
	To     string
	Domain string
}

// Client mails exports as attachments.
type Client struct {
	dialer sender
	opts   Options
}

func NewClient(dialer sender, opts Options) *Client {
	return &Client{dialer: dialer, opts: opts}
}

// NewDialer builds the gomail dialer the Client expects.
func NewDialer(host string, port int, username, password string) *gomail.Dialer {
	return gomail.NewDialer(host, port, username, password)
}

func (c *Client) Name() string {
	return "mail"
}

// Put sends the artifact to the configured recipient.
func (c *Client) Put(ctx context.Context, artifact qr.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := c.dialer.DialAndSend(c.message(artifact)); err != nil {
		return "", fmt.Errorf("failed to mail export: %w", err)
	}
	return "mailto:" + c.opts.To, nil
}

func (c *Client) message(artifact qr.Artifact) *gomail.Message {
	msg := gomail.NewMessage()

	msg.SetHeader("Message-ID", generateMessageID(c.opts.Domain))
	msg.SetHeader("Date", time.Now().Format(time.RFC1123Z))
	msg.SetHeader("From", c.opts.From)
	msg.SetHeader("To", c.opts.To)
	msg.SetHeader("Subject", fmt.Sprintf("QR code %s", artifact.Key))
	msg.SetBody("text/plain", fmt.Sprintf("Your QR code is attached as %s.", artifact.Filename()))
	msg.Attach(artifact.Filename(),
		gomail.SetHeader(map[string][]string{"Content-Type": {artifact.Format.ContentType()}}),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(artifact.Data)
			return err
		}),
	)
	return msg
}

func generateMessageID(domain string) string {
	uniqueID := uuid.New().String()
	return fmt.Sprintf("<%s@%s>", uniqueID, domain)
}

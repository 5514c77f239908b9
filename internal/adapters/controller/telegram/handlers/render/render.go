package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nlypage/intele/collector"
	tele "gopkg.in/telebot.v3"

	"github.com/Badsnus/qrstudio/cmd/bot"
	"github.com/Badsnus/qrstudio/internal/domain/dto"
	"github.com/Badsnus/qrstudio/internal/domain/utils/validator"
	"github.com/Badsnus/qrstudio/pkg/logger/types"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

const (
	// maxLogoBytes caps photo downloads used as logos.
	maxLogoBytes = 10 << 20
	// photoSizePx is large enough for the widest logo tier.
	photoSizePx    = 400
	photoLogoRatio = 0.2
)

type qrService interface {
	Render(ctx context.Context, req dto.RenderRequest) (*dto.RenderResult, error)
	Presets() []dto.Preset
}

type textLayout interface {
	Text(c tele.Context, k string, args ...interface{}) string
	Markup(c tele.Context, k string, args ...interface{}) *tele.ReplyMarkup
}

type fileDownloader interface {
	File(file *tele.File) (io.ReadCloser, error)
}

// inputFunc waits for the next message of a user; canceled is set when the
// wait was aborted.
type inputFunc func(ctx context.Context, userID int64) (msg *tele.Message, canceled bool, err error)

type Handler struct {
	qrService qrService
	files     fileDownloader
	input     inputFunc
	cancel    func(userID int64)
	layout    textLayout
	logger    *types.Logger
}

func New(b *bot.Bot, qrService qrService) *Handler {
	return &Handler{
		qrService: qrService,
		files:     b.Bot,
		input: func(ctx context.Context, userID int64) (*tele.Message, bool, error) {
			return b.Input.Get(ctx, userID, 0)
		},
		cancel: func(userID int64) {
			b.Input.Cancel(userID)
		},
		layout: b.Layout,
		logger: b.Logger,
	}
}

func (h Handler) Start(c tele.Context) error {
	h.logger.Infof("(user: %d) start", c.Sender().ID)
	return c.Send(h.layout.Text(c, "start_text", c.Sender().FirstName))
}

func (h Handler) Presets(c tele.Context) error {
	return c.Send(h.layout.Text(c, "presets_text", h.qrService.Presets()))
}

// Qr asks for the content to encode and replies with the rendered code.
// "/qr <preset>" selects a preset.
func (h Handler) Qr(c tele.Context) error {
	preset, ok := h.preset(c)
	if !ok {
		return c.Send(h.layout.Text(c, "unknown_preset", strings.Join(qr.PresetNames(), ", ")))
	}
	h.logger.Infof("(user: %d) requested QR code (preset=%q)", c.Sender().ID, preset)

	inputCollector := collector.New()
	_ = inputCollector.Send(c,
		h.layout.Text(c, "input_content"),
		h.layout.Markup(c, "render:cancel"),
	)

	content, ok := h.awaitContent(c.Sender().ID,
		func(message *tele.Message) {
			inputCollector.Collect(message)
		},
		func(err error) {
			text := h.layout.Text(c, "invalid_content")
			if err != nil {
				text = h.layout.Text(c, "input_error", h.layout.Text(c, "input_content"))
			}
			_ = inputCollector.Send(c, text, h.layout.Markup(c, "render:cancel"))
		},
	)
	if !ok {
		_ = inputCollector.Clear(c, collector.ClearOptions{IgnoreErrors: true, ExcludeLast: true})
		return nil
	}
	_ = inputCollector.Clear(c, collector.ClearOptions{IgnoreErrors: true})

	return h.send(c, dto.RenderRequest{Content: content, Preset: preset, Cache: true})
}

// awaitContent reads messages until one can be encoded. collect sees every
// received message, retry is called after a failed read (err set) or an
// unusable message. ok is false when the input was canceled.
func (h Handler) awaitContent(userID int64, collect func(*tele.Message), retry func(err error)) (content string, ok bool) {
	for {
		message, canceled, err := h.input(context.Background(), userID)
		if message != nil {
			collect(message)
		}
		switch {
		case canceled:
			return "", false
		case err != nil:
			h.logger.Errorf("(user: %d) error while input content: %v", userID, err)
			retry(err)
		case message == nil || !validator.Content(message.Text):
			retry(nil)
		default:
			return message.Text, true
		}
	}
}

// Photo encodes the caption of a photo and uses the photo as the logo.
func (h Handler) Photo(c tele.Context) error {
	photo := c.Message().Photo
	content := strings.TrimSpace(c.Message().Caption)
	if photo == nil || !validator.Content(content) {
		return c.Send(h.layout.Text(c, "invalid_content"))
	}
	h.logger.Infof("(user: %d) requested QR code with logo", c.Sender().ID)

	reader, err := h.files.File(&photo.File)
	if err != nil {
		h.logger.Errorf("(user: %d) failed to download logo: %v", c.Sender().ID, err)
		return c.Send(h.layout.Text(c, "technical_issues", err.Error()))
	}
	defer reader.Close()
	logo, err := io.ReadAll(io.LimitReader(reader, maxLogoBytes+1))
	if err != nil {
		h.logger.Errorf("(user: %d) failed to read logo: %v", c.Sender().ID, err)
		return c.Send(h.layout.Text(c, "technical_issues", err.Error()))
	}
	if len(logo) > maxLogoBytes {
		h.logger.Warnf("(user: %d) logo over %d bytes rejected", c.Sender().ID, maxLogoBytes)
		return c.Send(h.layout.Text(c, "logo_too_large", maxLogoBytes>>20))
	}

	return h.send(c, dto.RenderRequest{
		Content: content,
		SizePx:  photoSizePx,
		Logo:    &dto.LogoRequest{Data: logo, SizeRatio: photoLogoRatio},
		Cache:   true,
	})
}

func (h Handler) Cancel(c tele.Context) error {
	h.cancel(c.Sender().ID)
	return c.Edit(h.layout.Text(c, "input_canceled"))
}

func (h Handler) send(c tele.Context, req dto.RenderRequest) error {
	req.Format = string(qr.FormatPNG)
	result, err := h.qrService.Render(context.Background(), req)
	if err != nil {
		h.logger.Errorf("(user: %d) failed to render QR code: %v", c.Sender().ID, err)
		return c.Send(h.layout.Text(c, "render_failed", err.Error()))
	}

	err = c.Send(&tele.Photo{
		File:    tele.FromReader(bytes.NewReader(result.Data)),
		Caption: h.layout.Text(c, "qr_caption", result),
	})
	if err != nil {
		return fmt.Errorf("send qr code: %w", err)
	}
	for _, warning := range result.Warnings {
		_ = c.Send(h.layout.Text(c, "logo_warning", warning))
	}
	return nil
}

func (h Handler) preset(c tele.Context) (string, bool) {
	args := c.Args()
	if len(args) == 0 {
		return "", true
	}
	name := strings.ToLower(args[0])
	_, ok := qr.Preset(name)
	return name, ok
}

package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/Badsnus/qrstudio/internal/domain/dto"
	"github.com/Badsnus/qrstudio/pkg/logger/types"
)

type fakeContext struct {
	tele.Context
	sender  *tele.User
	message *tele.Message
	args    []string
	sent    []interface{}
	edited  []interface{}
}

func (c *fakeContext) Sender() *tele.User     { return c.sender }
func (c *fakeContext) Message() *tele.Message { return c.message }
func (c *fakeContext) Args() []string         { return c.args }

func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	c.sent = append(c.sent, what)
	return nil
}

func (c *fakeContext) Edit(what interface{}, _ ...interface{}) error {
	c.edited = append(c.edited, what)
	return nil
}

// fakeLayout renders a key as itself, followed by its arguments.
type fakeLayout struct{}

func (fakeLayout) Text(_ tele.Context, k string, args ...interface{}) string {
	if len(args) == 0 {
		return k
	}
	return k + " " + fmt.Sprint(args...)
}

func (fakeLayout) Markup(tele.Context, string, ...interface{}) *tele.ReplyMarkup {
	return nil
}

type fakeQrService struct {
	requests []dto.RenderRequest
	result   *dto.RenderResult
	err      error
}

func (s *fakeQrService) Render(_ context.Context, req dto.RenderRequest) (*dto.RenderResult, error) {
	s.requests = append(s.requests, req)
	return s.result, s.err
}

func (s *fakeQrService) Presets() []dto.Preset { return nil }

type fakeFiles struct {
	data []byte
	err  error
	got  []string
}

func (f *fakeFiles) File(file *tele.File) (io.ReadCloser, error) {
	f.got = append(f.got, file.FileID)
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func newHandler(svc *fakeQrService, files *fakeFiles) Handler {
	return Handler{
		qrService: svc,
		files:     files,
		layout:    fakeLayout{},
		logger:    &types.Logger{SugaredLogger: zap.NewNop().Sugar()},
	}
}

func photoMessage(caption string) *tele.Message {
	return &tele.Message{
		Caption: caption,
		Photo:   &tele.Photo{File: tele.File{FileID: "photo-1"}},
	}
}

func TestHandler_Preset(t *testing.T) {
	var h Handler
	tests := []struct {
		args []string
		name string
		ok   bool
	}{
		{nil, "", true},
		{[]string{"midnight"}, "midnight", true},
		{[]string{"MIDNIGHT", "extra"}, "midnight", true},
		{[]string{"nope"}, "nope", false},
	}
	for _, tt := range tests {
		name, ok := h.preset(&fakeContext{args: tt.args})
		assert.Equal(t, tt.name, name, "args %v", tt.args)
		assert.Equal(t, tt.ok, ok, "args %v", tt.args)
	}
}

func TestHandler_Photo(t *testing.T) {
	svc := &fakeQrService{result: &dto.RenderResult{Key: "k1", Data: []byte("png")}}
	files := &fakeFiles{data: []byte("logo bytes")}
	h := newHandler(svc, files)
	c := &fakeContext{sender: &tele.User{ID: 7}, message: photoMessage("  https://example.com  ")}

	require.NoError(t, h.Photo(c))

	assert.Equal(t, []string{"photo-1"}, files.got)
	require.Len(t, svc.requests, 1)
	req := svc.requests[0]
	assert.Equal(t, "https://example.com", req.Content)
	assert.Equal(t, "png", req.Format)
	assert.Equal(t, 400, req.SizePx)
	assert.True(t, req.Cache)
	require.NotNil(t, req.Logo)
	assert.Equal(t, []byte("logo bytes"), req.Logo.Data)
	assert.Equal(t, 0.2, req.Logo.SizeRatio)

	require.Len(t, c.sent, 1)
	photo, ok := c.sent[0].(*tele.Photo)
	require.True(t, ok)
	assert.Contains(t, photo.Caption, "qr_caption")
}

func TestHandler_PhotoRejected(t *testing.T) {
	tests := map[string]struct {
		message *tele.Message
		files   *fakeFiles
		want    string
	}{
		"no photo":       {&tele.Message{Caption: "hello"}, &fakeFiles{}, "invalid_content"},
		"empty caption":  {photoMessage("   "), &fakeFiles{}, "invalid_content"},
		"download fails": {photoMessage("hello"), &fakeFiles{err: errors.New("timeout")}, "technical_issues timeout"},
		"too large": {
			photoMessage("hello"),
			&fakeFiles{data: make([]byte, maxLogoBytes+1)},
			"logo_too_large 10",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			svc := &fakeQrService{}
			h := newHandler(svc, tt.files)
			c := &fakeContext{sender: &tele.User{ID: 7}, message: tt.message}

			require.NoError(t, h.Photo(c))
			assert.Equal(t, []interface{}{tt.want}, c.sent)
			assert.Empty(t, svc.requests)
		})
	}
}

func TestHandler_PhotoAtSizeLimit(t *testing.T) {
	svc := &fakeQrService{result: &dto.RenderResult{Data: []byte("png")}}
	h := newHandler(svc, &fakeFiles{data: make([]byte, maxLogoBytes)})
	c := &fakeContext{sender: &tele.User{ID: 7}, message: photoMessage("hello")}

	require.NoError(t, h.Photo(c))
	require.Len(t, svc.requests, 1)
	assert.Len(t, svc.requests[0].Logo.Data, maxLogoBytes)
}

func TestHandler_Send(t *testing.T) {
	svc := &fakeQrService{result: &dto.RenderResult{
		Key:      "k1",
		Data:     []byte("png"),
		Warnings: []string{"logo too small", "logo unreadable"},
	}}
	h := newHandler(svc, nil)
	c := &fakeContext{sender: &tele.User{ID: 7}}

	require.NoError(t, h.send(c, dto.RenderRequest{Content: "hello", Format: "svg"}))

	require.Len(t, svc.requests, 1)
	assert.Equal(t, "png", svc.requests[0].Format)
	require.Len(t, c.sent, 3)
	assert.IsType(t, &tele.Photo{}, c.sent[0])
	assert.Equal(t, "logo_warning logo too small", c.sent[1])
	assert.Equal(t, "logo_warning logo unreadable", c.sent[2])
}

func TestHandler_SendRenderFailed(t *testing.T) {
	svc := &fakeQrService{err: errors.New("content too long")}
	h := newHandler(svc, nil)
	c := &fakeContext{sender: &tele.User{ID: 7}}

	require.NoError(t, h.send(c, dto.RenderRequest{Content: "hello"}))
	assert.Equal(t, []interface{}{"render_failed content too long"}, c.sent)
}

type inputStep struct {
	message  *tele.Message
	canceled bool
	err      error
}

func scriptedInput(t *testing.T, userID int64, steps ...inputStep) inputFunc {
	return func(_ context.Context, id int64) (*tele.Message, bool, error) {
		assert.Equal(t, userID, id)
		require.NotEmpty(t, steps, "input read after the script ended")
		step := steps[0]
		steps = steps[1:]
		return step.message, step.canceled, step.err
	}
}

func TestHandler_AwaitContent(t *testing.T) {
	h := newHandler(&fakeQrService{}, nil)
	h.input = scriptedInput(t, 7,
		inputStep{err: errors.New("state lost")},
		inputStep{message: &tele.Message{Text: "  "}},
		inputStep{message: &tele.Message{Text: "hello"}},
	)

	var collected []string
	var retries []error
	content, ok := h.awaitContent(7,
		func(m *tele.Message) { collected = append(collected, m.Text) },
		func(err error) { retries = append(retries, err) },
	)

	assert.True(t, ok)
	assert.Equal(t, "hello", content)
	assert.Equal(t, []string{"  ", "hello"}, collected)
	require.Len(t, retries, 2)
	assert.EqualError(t, retries[0], "state lost")
	assert.NoError(t, retries[1])
}

func TestHandler_AwaitContentCanceled(t *testing.T) {
	h := newHandler(&fakeQrService{}, nil)
	h.input = scriptedInput(t, 7,
		inputStep{message: &tele.Message{Text: ""}},
		inputStep{canceled: true},
	)

	retried := 0
	content, ok := h.awaitContent(7, func(*tele.Message) {}, func(error) { retried++ })

	assert.False(t, ok)
	assert.Empty(t, content)
	assert.Equal(t, 1, retried)
}

func TestHandler_Cancel(t *testing.T) {
	h := newHandler(&fakeQrService{}, nil)
	var canceled []int64
	h.cancel = func(userID int64) { canceled = append(canceled, userID) }
	c := &fakeContext{sender: &tele.User{ID: 7}}

	require.NoError(t, h.Cancel(c))
	assert.Equal(t, []int64{7}, canceled)
	assert.Equal(t, []interface{}{"input_canceled"}, c.edited)
}

package qr

import "context"

// Format is an export format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	default:
		return "image/png"
	}
}

func (f Format) Valid() bool {
	return f == FormatPNG || f == FormatSVG
}

// Artifact is a finished export ready to be handed to a Sink.
type Artifact struct {
	Key    string
	Format Format
	Data   []byte
}

// Filename is the key with the format extension.
func (a Artifact) Filename() string {
	return a.Key + "." + string(a.Format)
}

// Sink is a target surface for exports: an object store, a directory, a
// mailbox or a chat. Put returns where the artifact ended up.
type Sink interface {
	Name() string
	Put(ctx context.Context, artifact Artifact) (string, error)
}

// Remover is implemented by sinks that can withdraw a delivered artifact.
type Remover interface {
	Delete(ctx context.Context, artifact Artifact) error
}

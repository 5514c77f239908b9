package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

// Sink writes artifacts into a local directory.
type Sink struct {
	dir string
}

// New resolves dir against the working directory and creates it.
func New(dir string) (*Sink, error) {
	if !filepath.IsAbs(dir) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(wd, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Sink{dir: dir}, nil
}

func (s *Sink) Name() string {
	return "file"
}

// Put writes the artifact atomically and returns its absolute path.
func (s *Sink) Put(ctx context.Context, artifact qr.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := filepath.Join(s.dir, filepath.Base(artifact.Filename()))

	tmp, err := os.CreateTemp(s.dir, ".export-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(artifact.Data); err != nil {
		tmp.Close()
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		return "", err
	}
	return target, nil
}

// Delete removes the artifact, ignoring files that are already gone.
func (s *Sink) Delete(ctx context.Context, artifact qr.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(artifact.Filename())))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

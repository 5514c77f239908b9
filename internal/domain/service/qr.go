package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/dto"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
	"github.com/Badsnus/qrstudio/internal/domain/utils/validator"
	"github.com/Badsnus/qrstudio/pkg/logger"
	"github.com/Badsnus/qrstudio/pkg/logger/types"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

const withdrawTimeout = 10 * time.Second

type exportCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

type exportStorage interface {
	Create(ctx context.Context, export *entity.Export) (*entity.Export, error)
	GetByKey(ctx context.Context, key string) (*entity.Export, error)
	Count(ctx context.Context) (int64, error)
	GetWithPagination(ctx context.Context, offset, limit int, order string) ([]entity.Export, error)
}

// QrServiceConfig wires a QrService. Cache and Storage are optional.
type QrServiceConfig struct {
	Renderer *qr.Renderer
	Cache    exportCache
	Storage  exportStorage
	Sinks    []qr.Sink
	Defaults qr.Options
	CacheTTL time.Duration
	Logger   *types.Logger
}

type QrService struct {
	renderer  *qr.Renderer
	cache     exportCache
	storage   exportStorage
	sinks     []qr.Sink
	defaults  qr.Options
	cacheTTL  time.Duration
	validator *validator.Validator
	logger    *types.Logger
}

func NewQrService(cfg QrServiceConfig) *QrService {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = qr.NewRenderer(qr.RendererConfig{Logger: log.SugaredLogger})
	}
	return &QrService{
		renderer:  renderer,
		cache:     cfg.Cache,
		storage:   cfg.Storage,
		sinks:     cfg.Sinks,
		defaults:  cfg.Defaults,
		cacheTTL:  cfg.CacheTTL,
		validator: validator.New(),
		logger:    log,
	}
}

// Render validates req, renders and exports it, optionally through the cache,
// and delivers the artifact to every sink when req.Store is set.
func (s *QrService) Render(ctx context.Context, req dto.RenderRequest) (*dto.RenderResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", errorz.ErrInvalidRequest, err)
	}
	if req.Store && len(s.sinks) == 0 {
		return nil, errorz.ErrNoSinks
	}
	format, err := req.ExportFormat()
	if err != nil {
		return nil, err
	}
	opts, err := req.Options(s.defaults)
	if err != nil {
		return nil, err
	}
	scale := req.ExportScale()
	if format == qr.FormatPNG && float64(opts.SizePx)*scale > qr.MaxCanvasPx {
		return nil, fmt.Errorf("%w: %d px at scale %g exceeds %d px", qr.ErrInvalidOptions, opts.SizePx, scale, qr.MaxCanvasPx)
	}

	result := &dto.RenderResult{
		Key:         ExportKey(req.Content, opts, format, scale),
		Format:      format,
		ContentType: format.ContentType(),
	}

	if req.Cache && s.cache != nil {
		data, errCache := s.cache.Get(ctx, result.Key)
		switch {
		case errCache == nil:
			result.Data = data
			result.Cached = true
		case !errors.Is(errCache, errorz.ErrCacheMiss):
			s.logger.Warnf("cache lookup failed (key=%s): %v", result.Key, errCache)
		}
	}

	if !result.Cached {
		img, errRender := s.renderer.Render(req.Content, opts)
		if errRender != nil {
			return nil, errRender
		}
		for _, warning := range img.Warnings {
			result.Warnings = append(result.Warnings, warning.Error())
		}

		switch format {
		case qr.FormatSVG:
			svg, errExport := img.Bytes()
			if errExport != nil {
				return nil, fmt.Errorf("serialize svg: %w", errExport)
			}
			result.Data = svg
		default:
			if result.Data, err = qr.EncodePNG(img, scale); err != nil {
				return nil, err
			}
		}

		if req.Cache && s.cache != nil {
			if errCache := s.cache.Set(ctx, result.Key, result.Data, s.cacheTTL); errCache != nil {
				s.logger.Warnf("cache store failed (key=%s): %v", result.Key, errCache)
			}
		}
	}

	if req.Store {
		locations, errDeliver := s.deliver(ctx, qr.Artifact{Key: result.Key, Format: format, Data: result.Data})
		if errDeliver != nil {
			return nil, errDeliver
		}
		result.Locations = locations

		if s.storage != nil {
			_, errCreate := s.storage.Create(ctx, &entity.Export{
				Key:       result.Key,
				Content:   req.Content,
				Format:    string(format),
				SizePx:    opts.SizePx,
				Bytes:     len(result.Data),
				Locations: locations,
				Warnings:  result.Warnings,
			})
			if errCreate != nil {
				delivered := make([]bool, len(s.sinks))
				for i := range delivered {
					delivered[i] = true
				}
				s.withdraw(ctx, qr.Artifact{Key: result.Key, Format: format, Data: result.Data}, delivered)
				return nil, fmt.Errorf("failed to record export: %w", errCreate)
			}
		}
	}

	s.logger.Infof("rendered %s (key=%s, bytes=%d, cached=%t, stored=%t, warnings=%d)",
		format, result.Key, len(result.Data), result.Cached, req.Store, len(result.Warnings))
	return result, nil
}

// deliver puts the artifact into every sink concurrently. Locations keep the
// sink order. When one sink fails, the copies already delivered are withdrawn.
func (s *QrService) deliver(ctx context.Context, artifact qr.Artifact) ([]string, error) {
	locations := make([]string, len(s.sinks))
	delivered := make([]bool, len(s.sinks))
	g, gctx := errgroup.WithContext(ctx)
	for i, sink := range s.sinks {
		i, sink := i, sink
		g.Go(func() error {
			location, err := sink.Put(gctx, artifact)
			if err != nil {
				s.logger.Errorf("sink %s failed (key=%s): %v", sink.Name(), artifact.Key, err)
				return fmt.Errorf("sink %s: %w", sink.Name(), err)
			}
			locations[i] = location
			delivered[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.withdraw(ctx, artifact, delivered)
		return nil, err
	}
	return locations, nil
}

// withdraw deletes the artifact from the delivered sinks that support it.
// It runs detached from ctx cancellation, which usually caused the failure.
func (s *QrService) withdraw(ctx context.Context, artifact qr.Artifact, delivered []bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), withdrawTimeout)
	defer cancel()
	for i, sink := range s.sinks {
		if !delivered[i] {
			continue
		}
		remover, ok := sink.(qr.Remover)
		if !ok {
			s.logger.Warnf("sink %s cannot withdraw %s", sink.Name(), artifact.Filename())
			continue
		}
		if err := remover.Delete(ctx, artifact); err != nil {
			s.logger.Warnf("failed to withdraw %s from sink %s: %v", artifact.Filename(), sink.Name(), err)
		}
	}
}

func (s *QrService) GetExport(ctx context.Context, key string) (*entity.Export, error) {
	if s.storage == nil {
		return nil, errorz.ErrExportNotFound
	}
	return s.storage.GetByKey(ctx, key)
}

// ListExports returns a page of recorded exports, newest first.
func (s *QrService) ListExports(ctx context.Context, offset, limit int) ([]entity.Export, int64, error) {
	if s.storage == nil {
		return []entity.Export{}, 0, nil
	}
	total, err := s.storage.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	exports, err := s.storage.GetWithPagination(ctx, offset, limit, "created_at desc")
	if err != nil {
		return nil, 0, err
	}
	return exports, total, nil
}

func (s *QrService) Presets() []dto.Preset {
	names := qr.PresetNames()
	presets := make([]dto.Preset, 0, len(names))
	for _, name := range names {
		opts, _ := qr.Preset(name)
		presets = append(presets, dto.NewPreset(name, opts))
	}
	return presets
}

// ExportKey derives a stable key from everything that affects the output.
// Colors are canonicalized first, so "#FFF" and "white" share a key. The
// scale only affects PNG output and is ignored for SVG.
func ExportKey(content string, opts qr.Options, format qr.Format, scale float64) string {
	h := sha256.New()
	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}
	canonical := func(c string) string {
		if v, err := qr.CanonicalColor(c); err == nil {
			return v
		}
		return c
	}
	withAlpha := func(c string) string {
		if v, err := qr.ParseColor(c); err == nil {
			return fmt.Sprintf("#%02x%02x%02x%02x", v.R, v.G, v.B, v.A)
		}
		return c
	}
	number := func(v float64) string {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}

	write(content, string(format))
	if format == qr.FormatPNG {
		write(number(scale))
	}
	write(strconv.Itoa(opts.SizePx),
		canonical(opts.Foreground),
		canonical(opts.Background),
		strconv.Itoa(opts.CornerRadiusPx),
		number(opts.MarginModules),
		opts.ErrorCorrection.String(),
	)
	if logo := opts.Logo; logo != nil {
		sum := sha256.Sum256(logo.Data)
		write("logo", hex.EncodeToString(sum[:]),
			number(logo.SizeRatio),
			number(logo.MarginRatio),
			canonical(logo.BorderColor),
			number(logo.BorderWidthPx),
			number(logo.ShadowBlurPx),
			withAlpha(logo.ShadowColor),
		)
	}
	return hex.EncodeToString(h.Sum(nil))
}

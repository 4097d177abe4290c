package build

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	mjson "github.com/tdewolff/minify/v2/json"

	"github.com/conneroisu/swatch/internal/errors"
	"github.com/conneroisu/swatch/internal/logging"
	"github.com/conneroisu/swatch/internal/renderer"
)

// SiteOptions configures static site generation
type SiteOptions struct {
	// Pages is the directory holding page templates
	Pages string
	// Ext selects page templates by extension
	Ext string
	// Output is the site output directory
	Output string
	// Minify runs rendered pages through the HTML minifier
	Minify bool
	// Assets are copied to AssetsOutput, relative to Output
	Assets       Passthrough
	AssetsOutput string
}

// SiteReport summarizes one build
type SiteReport struct {
	Pages    []PageResult
	Assets   []AssetFile
	Duration time.Duration
}

// SiteBuilder renders page templates through a component engine
type SiteBuilder struct {
	opts     SiteOptions
	renderer renderer.TemplateRenderer
	minifier *minify.M
	metrics  *BuildMetrics
	logger   logging.Logger
}

// NewSiteBuilder creates a builder that renders pages with r.
func NewSiteBuilder(opts SiteOptions, r renderer.TemplateRenderer, logger logging.Logger) *SiteBuilder {
	if opts.Ext == "" {
		opts.Ext = ".html"
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SiteBuilder{
		opts:     opts,
		renderer: r,
		minifier: newMinifier(),
		metrics:  NewBuildMetrics(),
		logger:   logger.WithComponent("build"),
	}
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags:    true,
		KeepDefaultAttrVals: true,
		KeepEndTags:         true,
	})
	m.AddFunc("application/javascript", js.Minify)
	m.AddFunc("application/json", mjson.Minify)
	return m
}

// Metrics returns the builder's running metrics
func (b *SiteBuilder) Metrics() *BuildMetrics {
	return b.metrics
}

// Build renders every page and copies the assets. The first page that fails
// to render aborts the build; the error carries the page path.
func (b *SiteBuilder) Build(ctx context.Context) (*SiteReport, error) {
	start := time.Now()
	perf := logging.StartOperation(b.logger, "site_build")
	report := &SiteReport{}

	if err := os.MkdirAll(b.opts.Output, 0o755); err != nil {
		err := errors.NewIOError(errors.ErrCodeInvalidPath, "failed to create output directory", err).
			WithFile(b.opts.Output)
		perf.EndWithError(ctx, err)
		return nil, err
	}

	pages, err := b.discoverPages(ctx)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}

	for _, page := range pages {
		result := b.renderPage(page)
		b.metrics.RecordPage(result)
		report.Pages = append(report.Pages, result)
		if result.Error != nil {
			perf.EndWithError(ctx, result.Error)
			return report, result.Error
		}
		b.logger.Debug(ctx, "Page rendered", "page", result.Page, "bytes", result.Bytes)
	}

	assetsDir := filepath.Join(b.opts.Output, b.opts.AssetsOutput)
	report.Assets, err = b.opts.Assets.Copy(ctx, assetsDir)
	if err != nil {
		perf.EndWithError(ctx, err)
		return report, err
	}

	b.metrics.RecordBuild()
	report.Duration = time.Since(start)
	perf.End(ctx)
	b.logger.Info(ctx, "Site built",
		"pages", len(report.Pages),
		"assets", len(report.Assets),
		"output", b.opts.Output)
	return report, nil
}

// discoverPages lists page templates relative to the pages directory.
// Files and directories starting with "_" are layouts and partials.
func (b *SiteBuilder) discoverPages(ctx context.Context) ([]string, error) {
	if _, err := os.Stat(b.opts.Pages); os.IsNotExist(err) {
		b.logger.Debug(ctx, "No pages directory", "path", b.opts.Pages)
		return nil, nil
	}

	var pages []string
	err := filepath.WalkDir(b.opts.Pages, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != b.opts.Pages && strings.HasPrefix(d.Name(), "_") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != b.opts.Ext {
			return nil
		}
		rel, err := filepath.Rel(b.opts.Pages, path)
		if err != nil {
			return err
		}
		pages = append(pages, rel)
		return nil
	})
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeInvalidPath, "failed to walk pages directory", err).
			WithFile(b.opts.Pages)
	}
	return pages, nil
}

func (b *SiteBuilder) renderPage(rel string) PageResult {
	start := time.Now()
	result := PageResult{
		Page:   rel,
		Output: filepath.Join(b.opts.Output, rel),
	}

	src, err := filepath.Abs(filepath.Join(b.opts.Pages, rel))
	if err != nil {
		result.Error = errors.WrapIO(err, errors.ErrCodeInvalidPath, "failed to resolve page").WithFile(rel)
		return result
	}

	out, err := b.renderer.RenderFile(src, pageData(rel))
	if err != nil {
		result.Error = errors.Wrap(err, errors.ErrorTypeRender, errors.ErrCodeRenderFailed, "failed to render page").
			WithFile(rel)
		return result
	}

	if b.opts.Minify {
		if out, err = b.minifier.String("text/html", out); err != nil {
			result.Error = errors.Wrap(err, errors.ErrorTypeRender, errors.ErrCodeRenderFailed, "failed to minify page").
				WithFile(rel)
			return result
		}
	}

	if err := os.MkdirAll(filepath.Dir(result.Output), 0o755); err != nil {
		result.Error = errors.WrapIO(err, errors.ErrCodeInvalidPath, "failed to create page directory").WithFile(rel)
		return result
	}
	if err := os.WriteFile(result.Output, []byte(out), 0o644); err != nil {
		result.Error = errors.WrapIO(err, errors.ErrCodeInvalidPath, "failed to write page").WithFile(rel)
		return result
	}

	result.Bytes = len(out)
	result.Duration = time.Since(start)
	return result
}

// pageData is the context every page template is rendered with
func pageData(rel string) map[string]any {
	url := "/" + filepath.ToSlash(rel)
	if strings.HasSuffix(url, "/index.html") {
		url = strings.TrimSuffix(url, "index.html")
	}
	return map[string]any{
		"page": map[string]any{
			"path": filepath.ToSlash(rel),
			"url":  url,
		},
	}
}

package bundler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/minio/crc64nvme"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/packcfg/internal/buildconfig"
)

type artifactKind int

const (
	kindAsset artifactKind = iota
	kindScript
	kindStyle
	kindPage
)

// artifact is one file the build emits. name is relative to the output
// directory and slash separated.
type artifact struct {
	name     string
	contents []byte
	kind     artifactKind
	chunk    string
}

type metafile struct {
	Outputs map[string]struct {
		EntryPoint string `json:"entryPoint"`
		CSSBundle  string `json:"cssBundle"`
	} `json:"outputs"`
}

// collectArtifacts classifies esbuild's in-memory output files using the
// metafile. Every entry output belongs to chunk.
func collectArtifacts(result *api.BuildResult, root, outdir, chunk string) ([]*artifact, error) {
	var meta metafile
	if result.Metafile != "" {
		if err := json.Unmarshal([]byte(result.Metafile), &meta); err != nil {
			return nil, fmt.Errorf("failed to decode metafile: %w", err)
		}
	}

	styles := map[string]bool{}
	for _, out := range meta.Outputs {
		if out.CSSBundle != "" {
			styles[out.CSSBundle] = true
		}
	}

	arts := make([]*artifact, 0, len(result.OutputFiles))
	for _, f := range result.OutputFiles {
		rel, err := filepath.Rel(outdir, f.Path)
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", f.Path, err)
		}

		key := f.Path
		if r, err := filepath.Rel(root, f.Path); err == nil {
			key = filepath.ToSlash(r)
		}

		a := &artifact{name: filepath.ToSlash(rel), contents: f.Contents}
		switch {
		case styles[key], meta.Outputs[key].EntryPoint != "" && path.Ext(key) == ".css":
			a.kind, a.chunk = kindStyle, chunk
		case meta.Outputs[key].EntryPoint != "":
			a.kind, a.chunk = kindScript, chunk
		}
		arts = append(arts, a)
	}

	return arts, nil
}

var nameHashToken = regexp.MustCompile(`\[(?:content|chunk)?hash(?::(\d+))?\]`)

// ContentHash returns the hex CRC-64/NVME of data.
func ContentHash(data []byte) string {
	h := crc64nvme.New()
	h.Write(data)
	return fmt.Sprintf("%016x", h.Sum64())
}

// ExpandName fills a webpack style name template for a chunk.
func ExpandName(template, chunk, ext string, contents []byte) string {
	hash := ContentHash(contents)

	name := nameHashToken.ReplaceAllStringFunc(template, func(tok string) string {
		m := nameHashToken.FindStringSubmatch(tok)
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 && n < len(hash) {
			return hash[:n]
		}
		return hash
	})

	return strings.NewReplacer("[name]", chunk, "[ext]", strings.TrimPrefix(ext, ".")).Replace(name)
}

func renameStyles(arts []*artifact, template string) {
	for _, a := range arts {
		if a.kind != kindStyle {
			continue
		}
		dir := path.Dir(a.name)
		a.name = path.Join(dir, ExpandName(template, a.chunk, ".css", a.contents))
	}
}

func minifyStyles(arts []*artifact, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid css minify pattern: %w", err)
	}

	for _, a := range arts {
		if path.Ext(a.name) != ".css" || !re.MatchString(a.name) {
			continue
		}

		result := api.Transform(string(a.contents), api.TransformOptions{
			Loader:           api.LoaderCSS,
			Sourcefile:       a.name,
			MinifyWhitespace: true,
			MinifySyntax:     true,
		})
		if len(result.Errors) > 0 {
			return newBuildError(result.Errors)
		}
		a.contents = result.Code
	}

	return nil
}

// cleanOutput removes everything under dir except paths matching a keep
// glob, then prunes directories left empty. It returns the number of files
// removed.
func cleanOutput(dir, root string, keep []string) (int, error) {
	if rel, err := filepath.Rel(dir, root); err == nil && !strings.HasPrefix(rel, "..") {
		return 0, fmt.Errorf("refusing to clean %s: it contains the project root", dir)
	}

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}

	var (
		removed int
		dirs    []string
	)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if kept(filepath.ToSlash(rel), keep) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			dirs = append(dirs, p)
			return nil
		}

		removed++
		return os.Remove(p)
	})
	if err != nil {
		return removed, fmt.Errorf("failed to clean output: %w", err)
	}

	// deepest first
	slices.Reverse(dirs)
	for _, d := range dirs {
		if entries, err := os.ReadDir(d); err == nil && len(entries) == 0 {
			if err := os.Remove(d); err != nil {
				return removed, fmt.Errorf("failed to clean output: %w", err)
			}
		}
	}

	return removed, nil
}

func kept(rel string, keep []string) bool {
	for _, pattern := range keep {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, _ := path.Match(pattern, path.Base(rel)); ok {
				return true
			}
		}
	}
	return false
}

// emitter applies the output plugins to a finished build and writes the
// result to the output directory.
type emitter struct {
	eff         *buildconfig.Effective
	root        string
	outdir      string
	fingerprint string
	liveReload  bool
	warnings    []string
	logger      zerolog.Logger
}

func (e *emitter) emit(result *api.BuildResult) (*Manifest, error) {
	chunk, _ := e.eff.EntryPoint()

	arts, err := collectArtifacts(result, e.root, e.outdir, chunk)
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{
		BuildID:     uuid.NewString(),
		Fingerprint: e.fingerprint,
		Mode:        e.eff.Mode,
		Chunks:      map[string]Chunk{},
		Warnings:    e.warnings,
	}

	if p, ok := e.eff.Plugins.Find(buildconfig.KindCleanOutput); ok {
		manifest.Cleaned, err = cleanOutput(e.outdir, e.root, p.(buildconfig.CleanOutput).Keep)
		if err != nil {
			return nil, err
		}
	}

	var pages []buildconfig.HTMLGenerate
	for _, p := range e.eff.Plugins {
		switch t := p.(type) {
		case buildconfig.CSSExtract:
			renameStyles(arts, t.Filename)
		case buildconfig.CSSMinify:
			if err := minifyStyles(arts, t.AssetNameRegExp); err != nil {
				return nil, err
			}
		case buildconfig.HTMLGenerate:
			// rendered once every asset has its final name
			pages = append(pages, t)
		case buildconfig.CleanOutput:
		default:
			e.logger.Warn().Str("plugin", string(p.Kind())).Msg("Plugin has no bundler counterpart, skipped")
		}
	}

	slices.SortFunc(arts, func(a, b *artifact) int { return strings.Compare(a.name, b.name) })

	for _, page := range pages {
		a, err := e.render(page, arts)
		if err != nil {
			return nil, err
		}
		arts = append(arts, a)
	}

	for _, a := range arts {
		if err := writeArtifact(e.outdir, a); err != nil {
			return nil, err
		}
		manifest.Bytes += int64(len(a.contents))

		switch a.kind {
		case kindScript:
			c := manifest.Chunks[a.chunk]
			c.Scripts = append(c.Scripts, a.name)
			manifest.Chunks[a.chunk] = c
		case kindStyle:
			c := manifest.Chunks[a.chunk]
			c.Styles = append(c.Styles, a.name)
			manifest.Chunks[a.chunk] = c
		case kindPage:
			manifest.Pages = append(manifest.Pages, a.name)
		default:
			manifest.Assets = append(manifest.Assets, a.name)
		}
	}

	if err := writeManifest(e.outdir, manifest); err != nil {
		return nil, err
	}

	return manifest, nil
}

func (e *emitter) render(page buildconfig.HTMLGenerate, arts []*artifact) (*artifact, error) {
	tmplPath := page.Template
	if !filepath.IsAbs(tmplPath) {
		tmplPath = filepath.Join(e.root, tmplPath)
	}

	tmpl, err := os.ReadFile(tmplPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read html template: %w", err)
	}

	var tags Page
	tags.LiveReload = e.liveReload
	for _, a := range arts {
		if len(page.Chunks) > 0 && !slices.Contains(page.Chunks, a.chunk) {
			continue
		}
		switch a.kind {
		case kindStyle:
			tags.Styles = append(tags.Styles, a.name)
		case kindScript:
			tags.Scripts = append(tags.Scripts, a.name)
		}
	}

	out, err := InjectTags(tmpl, tags)
	if err != nil {
		return nil, err
	}

	return &artifact{name: page.HTMLFilename(), contents: out, kind: kindPage}, nil
}

func writeArtifact(outdir string, a *artifact) error {
	p := filepath.Join(outdir, filepath.FromSlash(a.name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(p, a.contents, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write %s: %w", a.name, err)
	}
	return nil
}

// Package office implements extract.Extractor for OOXML presentation
// packages (.pptx). It is the built-in default extractor: it inventories
// embedded media and reads document properties straight from the package,
// without rendering. Deployments with a heavier parsing backend swap it
// out behind the extract.Extractor interface.
package office

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/deckhand-io/deckhand/pkg/extract"
)

var slideEntryRe = regexp.MustCompile(`^ppt/slides/slide[0-9]+\.xml$`)

// assetKinds maps media file extensions to asset kinds.
var assetKinds = map[string]string{
	".png": "image", ".jpg": "image", ".jpeg": "image", ".gif": "image",
	".bmp": "image", ".tiff": "image", ".emf": "image", ".wmf": "image",
	".svg": "image",
	".mp4": "video", ".mov": "video", ".avi": "video", ".wmv": "video",
	".m4v": "video",
	".mp3": "audio", ".wav": "audio", ".m4a": "audio", ".wma": "audio",
}

// Extractor reads .pptx packages directly.
type Extractor struct{}

// New creates an office package extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract implements extract.Extractor.
func (e *Extractor) Extract(ctx context.Context, req extract.Request, progress extract.ProgressFunc) (*extract.Result, error) {
	reader, err := zip.OpenReader(req.FileRef)
	if err != nil {
		return nil, fmt.Errorf("open presentation package: %w", err)
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			log.Warn().
				Str("component", "extract").
				Str("file", req.FileRef).
				Err(cerr).
				Msg("Failed to close presentation package")
		}
	}()

	report(progress, 10)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case req.Assets != nil:
		return e.extractAssets(ctx, &reader.Reader, req.Assets, progress)
	case req.Metadata != nil:
		return e.extractMetadata(ctx, &reader.Reader, req.Metadata, progress)
	default:
		return nil, fmt.Errorf("request carries no extraction options")
	}
}

func (e *Extractor) extractAssets(ctx context.Context, reader *zip.Reader, opts *extract.AssetOptions, progress extract.ProgressFunc) (*extract.Result, error) {
	wanted := make(map[string]bool, len(opts.Types))
	for _, t := range opts.Types {
		wanted[strings.ToLower(t)] = true
	}

	var assets []extract.Asset
	for i, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !strings.HasPrefix(file.Name, "ppt/media/") {
			continue
		}

		kind, ok := assetKinds[strings.ToLower(path.Ext(file.Name))]
		if !ok {
			kind = "other"
		}
		if len(wanted) > 0 && !wanted[kind] {
			continue
		}

		assets = append(assets, extract.Asset{
			Name: path.Base(file.Name),
			Kind: kind,
			Path: file.Name,
			Size: int64(file.UncompressedSize64),
		})
		if i%8 == 0 {
			report(progress, 10+80*i/len(reader.File))
		}
	}

	result := &extract.Result{Assets: assets}
	if opts.GenerateThumbnails {
		result.Warnings = append(result.Warnings,
			"thumbnail rendering is not supported by the built-in extractor")
	}

	report(progress, 95)
	return result, nil
}

func (e *Extractor) extractMetadata(ctx context.Context, reader *zip.Reader, opts *extract.MetadataOptions, progress extract.ProgressFunc) (*extract.Result, error) {
	meta := &extract.Metadata{Properties: map[string]string{}}

	if opts.IncludeSlideStats {
		for _, file := range reader.File {
			if slideEntryRe.MatchString(file.Name) {
				meta.SlideCount++
			}
			if strings.HasPrefix(file.Name, "ppt/media/") {
				meta.MediaCount++
			}
		}
	}
	report(progress, 40)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var warnings []string
	if opts.IncludeCoreProperties {
		if err := readCoreProperties(reader, meta); err != nil {
			warnings = append(warnings, fmt.Sprintf("core properties unavailable: %v", err))
		}
	}
	report(progress, 70)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.IncludeAppProperties {
		if err := readAppProperties(reader, meta); err != nil {
			warnings = append(warnings, fmt.Sprintf("app properties unavailable: %v", err))
		}
	}

	if len(meta.Properties) == 0 {
		meta.Properties = nil
	}
	report(progress, 95)
	return &extract.Result{Metadata: meta, Warnings: warnings}, nil
}

// coreProperties mirrors docProps/core.xml. Unqualified field tags match
// local names across the Dublin Core namespaces.
type coreProperties struct {
	Title    string `xml:"title"`
	Creator  string `xml:"creator"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
	Subject  string `xml:"subject"`
	Keywords string `xml:"keywords"`
}

type appProperties struct {
	Application string `xml:"Application"`
	Company     string `xml:"Company"`
	Slides      int    `xml:"Slides"`
	Words       int    `xml:"Words"`
}

func readCoreProperties(reader *zip.Reader, meta *extract.Metadata) error {
	var core coreProperties
	if err := readXMLEntry(reader, "docProps/core.xml", &core); err != nil {
		return err
	}

	meta.Title = core.Title
	meta.Author = core.Creator
	meta.Created = core.Created
	meta.Modified = core.Modified
	if core.Subject != "" {
		meta.Properties["subject"] = core.Subject
	}
	if core.Keywords != "" {
		meta.Properties["keywords"] = core.Keywords
	}
	return nil
}

func readAppProperties(reader *zip.Reader, meta *extract.Metadata) error {
	var app appProperties
	if err := readXMLEntry(reader, "docProps/app.xml", &app); err != nil {
		return err
	}

	// app.xml slide count is authoritative when present.
	if app.Slides > 0 {
		meta.SlideCount = app.Slides
	}
	if app.Application != "" {
		meta.Properties["application"] = app.Application
	}
	if app.Company != "" {
		meta.Properties["company"] = app.Company
	}
	if app.Words > 0 {
		meta.Properties["words"] = fmt.Sprintf("%d", app.Words)
	}
	return nil
}

func readXMLEntry(reader *zip.Reader, name string, dst any) error {
	entry, err := reader.Open(name)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer entry.Close()

	data, err := io.ReadAll(entry)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := xml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func report(progress extract.ProgressFunc, percent int) {
	if progress != nil {
		progress(percent)
	}
}

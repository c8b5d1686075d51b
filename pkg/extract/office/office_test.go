package office

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deckhand-io/deckhand/pkg/extract"
)

const coreXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
  xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">
  <dc:title>Quarterly Review</dc:title>
  <dc:creator>Ada</dc:creator>
  <dcterms:created>2024-03-01T09:00:00Z</dcterms:created>
  <dcterms:modified>2024-03-02T10:00:00Z</dcterms:modified>
  <dc:subject>finance</dc:subject>
</cp:coreProperties>`

const appXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">
  <Application>Microsoft Office PowerPoint</Application>
  <Company>Initech</Company>
  <Slides>2</Slides>
  <Words>120</Words>
</Properties>`

func writeTestDeck(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "deck.pptx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	entries := map[string]string{
		"[Content_Types].xml":        `<?xml version="1.0"?><Types/>`,
		"ppt/slides/slide1.xml":      `<sld/>`,
		"ppt/slides/slide2.xml":      `<sld/>`,
		"ppt/media/image1.png":       "png-bytes-here",
		"ppt/media/clip1.mp4":        "mp4-bytes-here",
		"ppt/media/narration1.mp3":   "mp3-bytes-here",
		"docProps/core.xml":          coreXML,
		"docProps/app.xml":           appXML,
		"ppt/slides/_rels/not.slide": `<rels/>`,
	}
	for name, body := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return path
}

func TestExtractor_Metadata(t *testing.T) {
	path := writeTestDeck(t)

	var last int
	res, err := New().Extract(context.Background(), extract.Request{
		FileRef: path,
		Metadata: &extract.MetadataOptions{
			IncludeCoreProperties: true,
			IncludeAppProperties:  true,
			IncludeSlideStats:     true,
		},
	}, func(p int) { last = p })

	require.NoError(t, err)
	require.NotNil(t, res.Metadata)
	require.Equal(t, "Quarterly Review", res.Metadata.Title)
	require.Equal(t, "Ada", res.Metadata.Author)
	require.Equal(t, 2, res.Metadata.SlideCount)
	require.Equal(t, 3, res.Metadata.MediaCount)
	require.Equal(t, "Initech", res.Metadata.Properties["company"])
	require.Equal(t, "finance", res.Metadata.Properties["subject"])
	require.Empty(t, res.Warnings)
	require.GreaterOrEqual(t, last, 95)
}

func TestExtractor_MetadataWithoutProperties(t *testing.T) {
	path := writeTestDeck(t)

	res, err := New().Extract(context.Background(), extract.Request{
		FileRef:  path,
		Metadata: &extract.MetadataOptions{IncludeSlideStats: true},
	}, nil)

	require.NoError(t, err)
	require.Equal(t, 2, res.Metadata.SlideCount)
	require.Empty(t, res.Metadata.Title)
	require.Nil(t, res.Metadata.Properties)
}

func TestExtractor_Assets(t *testing.T) {
	path := writeTestDeck(t)

	res, err := New().Extract(context.Background(), extract.Request{
		FileRef: path,
		Assets:  &extract.AssetOptions{},
	}, nil)

	require.NoError(t, err)
	require.Len(t, res.Assets, 3)

	kinds := map[string]int{}
	for _, a := range res.Assets {
		kinds[a.Kind]++
		require.NotEmpty(t, a.Name)
		require.Positive(t, a.Size)
	}
	require.Equal(t, map[string]int{"image": 1, "video": 1, "audio": 1}, kinds)
}

func TestExtractor_AssetsFiltered(t *testing.T) {
	path := writeTestDeck(t)

	res, err := New().Extract(context.Background(), extract.Request{
		FileRef: path,
		Assets:  &extract.AssetOptions{Types: []string{"image"}},
	}, nil)

	require.NoError(t, err)
	require.Len(t, res.Assets, 1)
	require.Equal(t, "image1.png", res.Assets[0].Name)
}

func TestExtractor_ThumbnailWarning(t *testing.T) {
	path := writeTestDeck(t)

	res, err := New().Extract(context.Background(), extract.Request{
		FileRef: path,
		Assets:  &extract.AssetOptions{GenerateThumbnails: true},
	}, nil)

	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "thumbnail")
}

func TestExtractor_NotAPackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.pptx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip"), 0o644))

	_, err := New().Extract(context.Background(), extract.Request{
		FileRef:  path,
		Metadata: &extract.MetadataOptions{},
	}, nil)
	require.Error(t, err)
}

func TestExtractor_CancelledContext(t *testing.T) {
	path := writeTestDeck(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Extract(ctx, extract.Request{
		FileRef:  path,
		Metadata: &extract.MetadataOptions{},
	}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestExtractor_NoOptions(t *testing.T) {
	path := writeTestDeck(t)

	_, err := New().Extract(context.Background(), extract.Request{FileRef: path}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no extraction options")
}

package processor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"research-rag/internal/models"

	"github.com/ledongthuc/pdf"
)

const (
	// DefaultChunkSize is the word budget per chunk
	DefaultChunkSize = 500
	// DefaultHeadingFontThreshold is the font size above which a block is
	// classified as a heading
	DefaultHeadingFontThreshold = 12.0
	// DefaultCaptionMaxOffset bounds the vertical scan below an image when
	// resolving its caption
	DefaultCaptionMaxOffset = 50.0
)

// Processor turns raw PDF bytes into chunks, media items and headings
type Processor struct {
	ChunkSize            int
	HeadingFontThreshold float64
	CaptionMaxOffset     float64
	Logger               *slog.Logger
}

// NewProcessor creates a processor with the given chunk size and defaults
// for the layout heuristics
func NewProcessor(chunkSize int) *Processor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Processor{
		ChunkSize:            chunkSize,
		HeadingFontThreshold: DefaultHeadingFontThreshold,
		CaptionMaxOffset:     DefaultCaptionMaxOffset,
		Logger:               slog.Default(),
	}
}

// Process runs the full pipeline over one document: text extraction, section
// tagging and chunking on one flow, the media pass on a second independent
// reader over the same bytes. The two passes share no state and run in
// parallel. A document that yields no usable blocks produces empty lists, not
// an error; a PDF that cannot be opened fails with *ParseError.
func (p *Processor) Process(ctx context.Context, data []byte, fileName string) (*models.ProcessedDocument, error) {
	textReader, err := openReader(data)
	if err != nil {
		return nil, &ParseError{FileName: fileName, Err: err}
	}
	mediaReader, err := openReader(data)
	if err != nil {
		return nil, &ParseError{FileName: fileName, Err: err}
	}

	var (
		wg            sync.WaitGroup
		blocks        []models.Block
		textWarnings  []models.ExtractionWarning
		images        []models.ImageItem
		tables        []models.TableItem
		mediaWarnings []models.ExtractionWarning
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		blocks, textWarnings = p.extractBlocks(textReader)
	}()
	go func() {
		defer wg.Done()
		images, tables, mediaWarnings = p.ExtractMedia(mediaReader)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tagged, headings := TagSections(blocks)
	chunks := BuildChunks(tagged, p.ChunkSize)

	doc := &models.ProcessedDocument{
		Chunks:   chunks,
		Images:   images,
		Tables:   tables,
		Headings: headings,
		FileName: fileName,
		Warnings: append(textWarnings, mediaWarnings...),
	}
	if doc.Chunks == nil {
		doc.Chunks = []models.Chunk{}
	}
	if doc.Images == nil {
		doc.Images = []models.ImageItem{}
	}
	if doc.Tables == nil {
		doc.Tables = []models.TableItem{}
	}
	if doc.Headings == nil {
		doc.Headings = []models.HeadingEntry{}
	}

	for _, w := range doc.Warnings {
		p.Logger.Warn("extraction item skipped",
			"file", fileName, "page", w.Page, "kind", w.Kind, "detail", w.Detail)
	}
	return doc, nil
}

// ProcessFile reads and processes a PDF from disk
func (p *Processor) ProcessFile(ctx context.Context, path string) (*models.ProcessedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{FileName: filepath.Base(path), Err: err}
	}
	return p.Process(ctx, data, filepath.Base(path))
}

// openReader builds a pdf.Reader over in-memory bytes, converting parser
// panics on malformed cross-reference tables into errors.
func openReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("open pdf: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

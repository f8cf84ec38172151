package processor

import (
	"fmt"
	"math"
	"strings"

	"research-rag/internal/models"

	"github.com/ledongthuc/pdf"
)

// Vertical gap between lines, as a multiple of the larger line's font size,
// that starts a new block.
const blockGapFactor = 1.5

// extractBlocks walks every page and emits raw blocks in reading order:
// page by page, top to bottom within a page. A page whose content stream
// cannot be interpreted is skipped with a warning rather than failing the run.
func (p *Processor) extractBlocks(r *pdf.Reader) ([]models.Block, []models.ExtractionWarning) {
	var blocks []models.Block
	var warnings []models.ExtractionWarning

	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		chars, err := pageContent(page)
		if err != nil {
			warnings = append(warnings, models.ExtractionWarning{
				Page:   pageNum,
				Kind:   "page",
				Detail: err.Error(),
			})
			continue
		}
		lines := assembleLines(chars)
		blocks = append(blocks, p.buildBlocks(lines, pageNum)...)
	}
	return blocks, warnings
}

// buildBlocks groups a page's lines into blocks on vertical gaps. A block's
// font size is the maximum across its lines; blocks whose text is empty after
// trimming are not emitted.
func (p *Processor) buildBlocks(lines []textLine, pageNum int) []models.Block {
	var blocks []models.Block
	var group []textLine

	flush := func() {
		if len(group) == 0 {
			return
		}
		parts := make([]string, 0, len(group))
		var fontSize float64
		for _, l := range group {
			parts = append(parts, l.text())
			if l.fontSize > fontSize {
				fontSize = l.fontSize
			}
		}
		text := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
		group = nil
		if text == "" {
			return
		}
		blocks = append(blocks, models.Block{
			Text:      text,
			Page:      pageNum,
			FontSize:  fontSize,
			IsHeading: fontSize > p.HeadingFontThreshold,
		})
	}

	for i, line := range lines {
		if i > 0 {
			prev := lines[i-1]
			gap := prev.y - line.y
			if gap > blockGapFactor*math.Max(prev.fontSize, line.fontSize) {
				flush()
			}
		}
		group = append(group, line)
	}
	flush()
	return blocks
}

// pageContent reads a page's positioned text runs. The underlying parser
// panics on malformed content streams; that is converted into an error here.
func pageContent(page pdf.Page) (texts []pdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("content stream: %v", r)
		}
	}()
	return page.Content().Text, nil
}

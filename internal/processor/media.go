package processor

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"

	"research-rag/internal/models"

	"github.com/ledongthuc/pdf"
)

// X-distance tolerance when clustering cell starts into table columns.
const columnTolerance = 10.0

// Caption continuation lines longer than this are assumed to be body text.
const captionContinuationMax = 60

var (
	// Caption leads like "Figure 3", "Fig. 2", "Table 1", "Chart 4".
	captionRe = regexp.MustCompile(`(?i)^(figure|fig\.?|table|chart)\s*\d+`)

	tableCaptionRe = regexp.MustCompile(`(?i)^table\s*\d+`)

	// "a b c d e f cm ... /Name Do" in a content stream. The translation part
	// of the matrix gives the placement, the scale the displayed size.
	placementRe = regexp.MustCompile(
		`(-?[\d.]+)\s+(-?[\d.]+)\s+(-?[\d.]+)\s+(-?[\d.]+)\s+(-?[\d.]+)\s+(-?[\d.]+)\s+cm\s*(?:\s*q\s*)?/(\S+)\s+Do`)
)

// ExtractMedia pulls images and tables from every page, independently of the
// text pipeline. Both extractors are best effort: a single unextractable item
// becomes a warning, never a failure of the run.
func (p *Processor) ExtractMedia(r *pdf.Reader) ([]models.ImageItem, []models.TableItem, []models.ExtractionWarning) {
	var images []models.ImageItem
	var tables []models.TableItem
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
		}
		lines := assembleLines(chars)

		imgs, warns := p.extractPageImages(page, pageNum, lines)
		images = append(images, imgs...)
		warnings = append(warnings, warns...)

		tables = append(tables, p.extractPageTables(lines, pageNum)...)
	}
	return images, tables, warnings
}

// extractPageImages resolves every raster XObject on a page, with its
// placement recovered from the content stream and a caption resolved from the
// text just below the image box.
func (p *Processor) extractPageImages(page pdf.Page, pageNum int, lines []textLine) ([]models.ImageItem, []models.ExtractionWarning) {
	var items []models.ImageItem
	var warns []models.ExtractionWarning

	xobjs := page.Resources().Key("XObject")
	if xobjs.Kind() != pdf.Dict {
		return nil, nil
	}

	placements := scanPlacements(page)

	index := 0
	for _, name := range xobjs.Keys() {
		item, err := readImage(xobjs.Key(name))
		if err != nil {
			warns = append(warns, models.ExtractionWarning{
				Page:   pageNum,
				Kind:   "image",
				Detail: fmt.Sprintf("%s: %v", name, err),
			})
			continue
		}
		if item == nil {
			continue
		}
		if item.Data == nil && item.Filter != "" {
			warns = append(warns, models.ExtractionWarning{
				Page:   pageNum,
				Kind:   "image",
				Detail: fmt.Sprintf("%s: %s samples left undecoded", name, item.Filter),
			})
		}
		item.Page = pageNum
		item.Index = index
		if box, ok := placements[name]; ok {
			item.BBox = box
			item.Caption = findImageCaption(lines, box, p.CaptionMaxOffset)
		}
		items = append(items, *item)
		index++
	}
	return items, warns
}

// readImage resolves one XObject into an ImageItem, or nil when the object is
// not a raster image. Pixel data is read for Flate-compressed (and raw)
// streams; other filters keep their dimensions but stay undecoded.
func readImage(obj pdf.Value) (item *models.ImageItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			item, err = nil, fmt.Errorf("read image: %v", r)
		}
	}()

	if obj.Kind() != pdf.Stream || obj.Key("Subtype").Name() != "Image" {
		return nil, nil
	}

	item = &models.ImageItem{
		Width:  int(obj.Key("Width").Int64()),
		Height: int(obj.Key("Height").Int64()),
		Filter: filterName(obj.Key("Filter")),
	}

	switch item.Filter {
	case "", "FlateDecode":
		rc := obj.Reader()
		defer rc.Close()
		data, rerr := io.ReadAll(rc)
		if rerr != nil {
			return nil, fmt.Errorf("decode samples: %w", rerr)
		}
		item.Data = data
	}
	return item, nil
}

func filterName(v pdf.Value) string {
	switch v.Kind() {
	case pdf.Name:
		return v.Name()
	case pdf.Array:
		if v.Len() > 0 {
			return v.Index(0).Name()
		}
	}
	return ""
}

// scanPlacements maps XObject names to the bounding box they are drawn at,
// recovered from transformation matrices in the page's content stream.
func scanPlacements(page pdf.Page) map[string]models.BBox {
	data, err := contentStreamData(page)
	if err != nil {
		return nil
	}

	placements := make(map[string]models.BBox)
	for _, m := range placementRe.FindAllStringSubmatch(string(data), -1) {
		a, _ := strconv.ParseFloat(m[1], 64)
		d, _ := strconv.ParseFloat(m[4], 64)
		e, _ := strconv.ParseFloat(m[5], 64)
		f, _ := strconv.ParseFloat(m[6], 64)
		placements[m[7]] = models.BBox{
			X:      e,
			Y:      f,
			Width:  math.Abs(a),
			Height: math.Abs(d),
		}
	}
	return placements
}

// contentStreamData concatenates a page's decoded content streams.
func contentStreamData(page pdf.Page) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("content stream: %v", r)
		}
	}()

	contents := page.V.Key("Contents")
	var buf bytes.Buffer
	switch contents.Kind() {
	case pdf.Stream:
		rc := contents.Reader()
		_, err = buf.ReadFrom(rc)
		rc.Close()
	case pdf.Array:
		for i := 0; i < contents.Len(); i++ {
			rc := contents.Index(i).Reader()
			if _, err = buf.ReadFrom(rc); err != nil {
				rc.Close()
				return nil, err
			}
			rc.Close()
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), err
}

// findImageCaption scans the text region immediately below the image box, up
// to maxOffset units, for a line starting like a caption. Lines arrive sorted
// top to bottom, so the first match is the nearest one.
func findImageCaption(lines []textLine, box models.BBox, maxOffset float64) string {
	for _, line := range lines {
		if line.y >= box.Bottom() {
			continue
		}
		if box.Bottom()-line.y > maxOffset {
			continue
		}
		if text := line.text(); captionRe.MatchString(text) {
			return text
		}
	}
	return ""
}

// extractPageTables detects runs of column-aligned multi-cell lines and
// converts each run into a cell grid. Runs shorter than 2 rows are noise and
// discarded. Page captions matching the table pattern are paired with tables
// in order of appearance.
func (p *Processor) extractPageTables(lines []textLine, pageNum int) []models.TableItem {
	captions := tableCaptions(lines)

	var tables []models.TableItem
	var run []textLine

	flush := func() {
		defer func() { run = nil }()
		if len(run) < 2 {
			return
		}
		rows, ok := buildGrid(run)
		if !ok {
			return
		}
		item := models.TableItem{
			Rows:  rows,
			Page:  pageNum,
			Index: len(tables),
		}
		if len(tables) < len(captions) {
			item.Caption = captions[len(tables)]
		}
		tables = append(tables, item)
	}

	for _, line := range lines {
		if len(line.cells()) >= 2 {
			run = append(run, line)
			continue
		}
		flush()
	}
	flush()
	return tables
}

// buildGrid clusters cell start positions across a run of lines into columns
// and lays each line's cells into them. Missing cells normalize to the empty
// string.
func buildGrid(run []textLine) ([][]string, bool) {
	var cols []float64
	for _, line := range run {
		for _, c := range line.cells() {
			if nearestColumn(cols, c.x0) < 0 {
				cols = append(cols, c.x0)
				sort.Float64s(cols)
			}
		}
	}
	if len(cols) < 2 {
		return nil, false
	}

	rows := make([][]string, 0, len(run))
	for _, line := range run {
		row := make([]string, len(cols))
		for _, c := range line.cells() {
			i := nearestColumn(cols, c.x0)
			if row[i] != "" {
				row[i] += " "
			}
			row[i] += c.text
		}
		rows = append(rows, row)
	}
	return rows, true
}

// nearestColumn returns the index of the column within tolerance of x, or -1.
func nearestColumn(cols []float64, x float64) int {
	best, bestDist := -1, columnTolerance
	for i, cx := range cols {
		if d := math.Abs(cx - x); d <= bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// tableCaptions collects the page's table-caption lines in order, each
// extended with its following line when that line is short and reads as
// neither a table row nor a new caption.
func tableCaptions(lines []textLine) []string {
	var captions []string
	for i, line := range lines {
		text := line.text()
		if !tableCaptionRe.MatchString(text) {
			continue
		}
		if i+1 < len(lines) {
			next := lines[i+1]
			nextText := next.text()
			if nextText != "" && len(nextText) <= captionContinuationMax &&
				len(next.cells()) < 2 && !tableCaptionRe.MatchString(nextText) {
				text += " " + nextText
			}
		}
		captions = append(captions, text)
	}
	return captions
}

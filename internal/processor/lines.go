package processor

import (
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// Fraction of the font size used as the baseline tolerance when grouping
	// characters into lines.
	lineYTolerance = 0.5

	// Horizontal gap, as a fraction of the font size, that separates two words.
	wordGapFraction = 0.25

	// Horizontal gap, as a fraction of the font size, that separates two table cells.
	cellGapFraction = 2.0
)

// textWord is a run of adjacent characters sharing one baseline.
type textWord struct {
	text     string
	x0, x1   float64
	y        float64
	fontSize float64
}

// textCell is a group of words forming one table cell candidate.
type textCell struct {
	text string
	x0   float64
	x1   float64
}

// textLine is one horizontal line of words in left-to-right order.
type textLine struct {
	words    []textWord
	y        float64 // baseline of the line
	x0, x1   float64
	fontSize float64 // maximum font size observed on the line
}

func (l textLine) text() string {
	parts := make([]string, 0, len(l.words))
	for _, w := range l.words {
		parts = append(parts, w.text)
	}
	return strings.Join(parts, " ")
}

// cells splits the line's words on gaps wide enough to be column separators.
func (l textLine) cells() []textCell {
	var cells []textCell
	for _, w := range l.words {
		gapLimit := cellGapFraction * math.Max(w.fontSize, 1)
		if len(cells) > 0 && w.x0-cells[len(cells)-1].x1 <= gapLimit {
			cur := &cells[len(cells)-1]
			cur.text += " " + w.text
			cur.x1 = w.x1
			continue
		}
		cells = append(cells, textCell{text: w.text, x0: w.x0, x1: w.x1})
	}
	return cells
}

// assembleLines groups positioned characters into lines ordered top to bottom,
// with words assembled left to right within each line. The PDF content stream
// emits one run per character, so word boundaries are recovered from horizontal
// gaps and explicit space characters.
func assembleLines(chars []pdf.Text) []textLine {
	runs := make([]pdf.Text, 0, len(chars))
	for _, c := range chars {
		if c.S == "" {
			continue
		}
		runs = append(runs, c)
	}
	if len(runs) == 0 {
		return nil
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Y > runs[j].Y
	})

	var lines []textLine
	var group []pdf.Text
	groupY := runs[0].Y
	for _, c := range runs {
		tol := math.Max(2, c.FontSize*lineYTolerance)
		if len(group) > 0 && groupY-c.Y > tol {
			if l, ok := buildLine(group); ok {
				lines = append(lines, l)
			}
			group = nil
		}
		if len(group) == 0 {
			groupY = c.Y
		}
		group = append(group, c)
	}
	if l, ok := buildLine(group); ok {
		lines = append(lines, l)
	}
	return lines
}

// buildLine orders one baseline group by X and assembles its words.
func buildLine(group []pdf.Text) (textLine, bool) {
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].X < group[j].X
	})

	line := textLine{y: group[0].Y, x0: group[0].X}
	var word strings.Builder
	var wordStart, prevEnd float64

	flush := func(fontSize float64) {
		text := strings.TrimSpace(word.String())
		if text != "" {
			line.words = append(line.words, textWord{
				text:     text,
				x0:       wordStart,
				x1:       prevEnd,
				y:        line.y,
				fontSize: fontSize,
			})
		}
		word.Reset()
	}

	var fontSize float64
	for _, c := range group {
		if c.FontSize > line.fontSize {
			line.fontSize = c.FontSize
		}
		isSpace := strings.TrimSpace(c.S) == ""
		gap := c.X - prevEnd
		if word.Len() > 0 && (isSpace || gap > wordGapFraction*math.Max(c.FontSize, 1)) {
			flush(fontSize)
		}
		if isSpace {
			prevEnd = c.X + c.W
			continue
		}
		if word.Len() == 0 {
			wordStart = c.X
			fontSize = c.FontSize
		}
		if c.FontSize > fontSize {
			fontSize = c.FontSize
		}
		word.WriteString(c.S)
		prevEnd = c.X + c.W
		if prevEnd > line.x1 {
			line.x1 = prevEnd
		}
	}
	flush(fontSize)

	return line, len(line.words) > 0
}

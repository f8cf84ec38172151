package processor

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zeroPagePDF assembles a structurally valid PDF with an empty page tree.
// Object offsets are recorded while writing so the xref table is exact.
func zeroPagePDF() []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")

	var offsets []int
	offsets = append(offsets, b.Len())
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offsets = append(offsets, b.Len())
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [] /Count 0 >>\nendobj\n")

	xrefStart := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(offsets)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefStart)
	return b.Bytes()
}

func TestProcessZeroPageDocument(t *testing.T) {
	p := NewProcessor(500)

	doc, err := p.Process(context.Background(), zeroPagePDF(), "empty.pdf")
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, "empty.pdf", doc.FileName)
	assert.NotNil(t, doc.Chunks)
	assert.Empty(t, doc.Chunks)
	assert.NotNil(t, doc.Images)
	assert.Empty(t, doc.Images)
	assert.NotNil(t, doc.Tables)
	assert.Empty(t, doc.Tables)
	assert.NotNil(t, doc.Headings)
	assert.Empty(t, doc.Headings)
	assert.Empty(t, doc.Warnings)
}

func TestProcessRejectsUnparseableBytes(t *testing.T) {
	p := NewProcessor(500)

	_, err := p.Process(context.Background(), []byte("not a pdf"), "bad.pdf")
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "bad.pdf", parseErr.FileName)
}

func TestProcessorSettingsApplied(t *testing.T) {
	p := NewProcessor(500)
	p.HeadingFontThreshold = 13.0

	lines := []textLine{
		{words: []textWord{{text: "borderline", fontSize: 12.5}}, y: 700, fontSize: 12.5},
	}
	blocks := p.buildBlocks(lines, 1)
	require.Len(t, blocks, 1)
	assert.False(t, blocks[0].IsHeading, "12.5pt is body text under a raised threshold")

	p.HeadingFontThreshold = DefaultHeadingFontThreshold
	blocks = p.buildBlocks(lines, 1)
	require.Len(t, blocks, 1)
	assert.True(t, blocks[0].IsHeading)
}

package processor

import (
	"strings"

	"research-rag/internal/models"
)

// BuildChunks groups section-tagged blocks into chunks bounded by chunkSize
// words. Heading blocks contribute no content but their text is carried into
// the metadata of the chunks that follow them. Blocks are never split: the
// accumulator closes when adding the next block would exceed the threshold,
// so only the final chunk of a document may hold a partial remainder.
//
// A chunk's page, section and heading come from the last block folded into it.
// A chunk spanning pages 3-4 therefore cites page 4.
func BuildChunks(blocks []models.Block, chunkSize int) []models.Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var chunks []models.Chunk
	var parts []string
	var words int
	var last models.Block
	chunkID := 0

	flush := func() {
		if len(parts) == 0 {
			return
		}
		chunks = append(chunks, models.Chunk{
			Text: strings.Join(parts, " "),
			Metadata: models.ChunkMetadata{
				ChunkID:   chunkID,
				Section:   last.Section,
				Page:      last.Page,
				Heading:   last.Heading,
				WordCount: words,
			},
		})
		chunkID++
		parts = nil
		words = 0
	}

	for _, b := range blocks {
		if b.IsHeading {
			continue
		}
		n := len(strings.Fields(b.Text))
		if n == 0 {
			continue
		}
		if words+n > chunkSize {
			flush()
		}
		parts = append(parts, b.Text)
		words += n
		last = b
	}
	flush()

	return chunks
}

package llm

import (
	"strings"
	"testing"

	"research-rag/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(text, filename, section string, page int, similarity float64) models.RetrievedResult {
	return models.RetrievedResult{
		Text: text,
		Metadata: models.ChunkMetadata{
			Filename: filename,
			Section:  section,
			Page:     page,
		},
		Similarity: similarity,
	}
}

func TestBuildContext(t *testing.T) {
	results := []models.RetrievedResult{
		result("first chunk", "p.pdf", "introduction", 1, 0.9),
		result("second chunk", "p.pdf", "results", 4, 0.8),
	}

	got := BuildContext(results)

	assert.Contains(t, got, "[Source 1 - Page 1, Section: introduction]\nfirst chunk")
	assert.Contains(t, got, "[Source 2 - Page 4, Section: results]\nsecond chunk")
	assert.Contains(t, got, "\n---------------\n")
}

func TestBuildContextEmpty(t *testing.T) {
	assert.Empty(t, BuildContext(nil))
}

func TestBuildPrompt(t *testing.T) {
	results := []models.RetrievedResult{
		result("attention is all you need", "p.pdf", "abstract", 1, 0.95),
	}

	prompt := BuildPrompt("What is attention?", results)

	assert.Contains(t, prompt, "research assistant")
	assert.Contains(t, prompt, "[Source 1 - Page 1, Section: abstract]")
	assert.Contains(t, prompt, "Question: What is attention?")
	assert.True(t, strings.HasSuffix(prompt, "Answer: "))
}

func TestFormatSources(t *testing.T) {
	results := []models.RetrievedResult{
		result("", "p.pdf", "results", 2, 0.842),
		result("", "other.pdf", "related work", 7, 0.5),
	}

	got := FormatSources(results)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 4)

	assert.Equal(t, "**Sources:**", lines[0])
	assert.Equal(t, "", lines[1])
	assert.Equal(t, "1. 📄 p.pdf (Page 2) - Results - Relevance: 84%", lines[2])
	assert.Equal(t, "2. 📄 other.pdf (Page 7) - Related Work - Relevance: 50%", lines[3])
}

func TestFormatSourcesEmpty(t *testing.T) {
	assert.Equal(t, "No sources found.", FormatSources(nil))
	assert.Equal(t, "No sources found.", FormatSources([]models.RetrievedResult{}))
}

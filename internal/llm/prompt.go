package llm

import (
	"fmt"
	"strings"

	"research-rag/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const contextSeparator = "\n---------------\n"

var titleCaser = cases.Title(language.English)

// BuildContext joins retrieved chunks into one context string, each chunk
// prefixed with the source tag the model is told to cite.
func BuildContext(results []models.RetrievedResult) string {
	parts := make([]string, 0, len(results))
	for i, r := range results {
		tag := fmt.Sprintf("[Source %d - Page %d, Section: %s]", i+1, r.Metadata.Page, r.Metadata.Section)
		parts = append(parts, tag+"\n"+r.Text+"\n")
	}
	return strings.Join(parts, contextSeparator)
}

// BuildPrompt assembles the full prompt: persona instructions, the retrieved
// context, and the question.
func BuildPrompt(question string, results []models.RetrievedResult) string {
	var sb strings.Builder

	sb.WriteString("You are a research assistant helping the user understand the papers they uploaded. ")
	sb.WriteString("Answer the question using only the provided context, and cite the sources you used ")
	sb.WriteString("by their [Source N] tags. ")
	sb.WriteString("If the context does not contain the answer, say so honestly instead of guessing. ")
	sb.WriteString("If the question is unrelated to the documents, politely say you can only answer ")
	sb.WriteString("questions about the uploaded papers. Keep answers concise and clear.\n\n")

	sb.WriteString("Context from the uploaded papers:\n")
	sb.WriteString(BuildContext(results))
	sb.WriteString("\n\n")

	sb.WriteString("Question: " + question + "\n\n")
	sb.WriteString("Answer: ")

	return sb.String()
}

// FormatSources renders the citation list shown under an answer, one line per
// source with filename, page, section and relevance percentage.
func FormatSources(results []models.RetrievedResult) string {
	if len(results) == 0 {
		return "No sources found."
	}

	lines := make([]string, 0, len(results))
	for i, r := range results {
		lines = append(lines, fmt.Sprintf("%d. 📄 %s (Page %d) - %s - Relevance: %d%%",
			i+1,
			r.Metadata.Filename,
			r.Metadata.Page,
			titleCaser.String(r.Metadata.Section),
			int(r.Similarity*100)))
	}
	return "**Sources:**\n\n" + strings.Join(lines, "\n")
}

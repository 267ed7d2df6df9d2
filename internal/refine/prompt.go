package refine

import (
	"fmt"
	"strings"
)

// SystemPrompt frames every refine call.
const SystemPrompt = `You are a careful line editor working on a novel manuscript. You fix grammar, spelling, punctuation and awkward phrasing while keeping the author's voice, tense, point of view, names and plot exactly as they are.`

const refineInstructions = `Edit the manuscript excerpt below.

Rules:
- Keep every chapter heading and scene break line ("***") exactly where it is
- Do not add, remove or reorder scenes, paragraphs or dialogue
- Do not summarize and do not continue the story
- Keep the length within roughly ten percent of the original
- Return ONLY the edited excerpt: no preamble, no notes, no quotation marks around it`

// BuildChunkPrompt creates the user prompt for one chunk. heading is the
// section marker the chunk starts under, if any.
func BuildChunkPrompt(title, heading, chunkText string) string {
	var sb strings.Builder
	sb.WriteString(refineInstructions)
	sb.WriteString("\n\n---\n")
	if title != "" {
		sb.WriteString(fmt.Sprintf("Manuscript: %q\n", title))
	}
	if heading != "" {
		sb.WriteString(fmt.Sprintf("Section: %s\n", heading))
	}
	sb.WriteString("---\n")
	sb.WriteString(chunkText)
	return sb.String()
}

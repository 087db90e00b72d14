// Package chat turns the park catalogue into a prompt and asks a hosted
// language model about it.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/sakif/parks/internal/model"
)

// Generator produces a text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const preamble = `You are a helpful assistant for a community parks catalogue.
Answer the user's question using ONLY the parks listed below. If the answer
cannot be found in this list, say that you only know about these parks.
Ratings go from 1 (poor) to 5 (excellent).

Parks:
`

// SummarizePark renders one park as a single human-readable line.
func SummarizePark(p model.Park) string {
	return fmt.Sprintf(
		"%s (id %d): restroom %s, shop %s, adult sport area %s, playground condition %d, playground variety %d, security %d, tree coverage %d",
		p.Name, p.ID,
		model.YesNo(p.HasWC), model.YesNo(p.HasShop), model.YesNo(p.HasAdultSportArea),
		p.PlaygroundCondition, p.PlaygroundVariety, p.Security, p.TreeCoverage,
	)
}

// BuildPrompt wraps every park summary in the fixed preamble and appends
// the question.
func BuildPrompt(parks []model.Park, question string) string {
	var b strings.Builder
	b.WriteString(preamble)
	if len(parks) == 0 {
		b.WriteString("(no parks have been added yet)\n")
	}
	for _, p := range parks {
		b.WriteString("- ")
		b.WriteString(SummarizePark(p))
		b.WriteByte('\n')
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteByte('\n')
	return b.String()
}

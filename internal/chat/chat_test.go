package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/parks/internal/model"
)

func TestSummarizePark(t *testing.T) {
	p := model.Park{
		ID:                  3,
		Name:                "Riverside Park",
		HasWC:               true,
		PlaygroundCondition: 4,
		PlaygroundVariety:   2,
		Security:            5,
		TreeCoverage:        1,
	}

	got := SummarizePark(p)

	assert.Equal(t,
		"Riverside Park (id 3): restroom yes, shop no, adult sport area no, playground condition 4, playground variety 2, security 5, tree coverage 1",
		got)
	assert.NotContains(t, got, "\n")
}

func TestBuildPrompt(t *testing.T) {
	parks := []model.Park{
		{ID: 1, Name: "Alder Green", PlaygroundCondition: 3, PlaygroundVariety: 3, Security: 3, TreeCoverage: 3},
		{ID: 2, Name: "Birch Common", HasShop: true, PlaygroundCondition: 5, PlaygroundVariety: 4, Security: 2, TreeCoverage: 5},
	}

	prompt := BuildPrompt(parks, "Which park has a shop?")

	assert.True(t, strings.HasPrefix(prompt, preamble))
	assert.Contains(t, prompt, "- "+SummarizePark(parks[0])+"\n")
	assert.Contains(t, prompt, "- "+SummarizePark(parks[1])+"\n")
	assert.True(t, strings.HasSuffix(prompt, "Question: Which park has a shop?\n"))

	// summaries keep the store's order
	assert.Less(t, strings.Index(prompt, "Alder Green"), strings.Index(prompt, "Birch Common"))
}

func TestBuildPrompt_NoParks(t *testing.T) {
	prompt := BuildPrompt(nil, "anything?")
	assert.Contains(t, prompt, "(no parks have been added yet)")
}

func TestNewGeminiGenerator_RequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), "", "")
	require.Error(t, err)
}

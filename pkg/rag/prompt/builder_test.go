package prompt

import (
	"strings"
	"testing"

	"github.com/hoanghaiduong/gym-food-rag/internal/entity"
	"github.com/hoanghaiduong/gym-food-rag/pkg/rag/fusion"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder("  You are a gym nutritionist.\n")
	results := []fusion.FusedResult{
		{Item: &entity.KnowledgeItem{Id: uuid.New(), Name: "Ức gà", Content: "165 kcal, Protein 31g "}},
		{Item: &entity.KnowledgeItem{Id: uuid.New(), Name: "Yến mạch", Content: "389 kcal, Carb 66g"}},
	}

	out := b.Build(" Ăn gì để tăng cơ? ", results)

	assert.True(t, strings.HasPrefix(out, "You are a gym nutritionist.\n\nCONTEXT INFORMATION:\n"))
	assert.Contains(t, out, "[1] Ức gà - 165 kcal, Protein 31g\n[2] Yến mạch - 389 kcal, Carb 66g\n")
	assert.True(t, strings.HasSuffix(out, "USER QUESTION:\nĂn gì để tăng cơ?\n"))

	// Context precedes the question
	assert.Less(t, strings.Index(out, "CONTEXT INFORMATION"), strings.Index(out, "USER QUESTION"))
}

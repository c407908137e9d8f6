package prompt

import (
	"fmt"
	"strings"

	"github.com/hoanghaiduong/gym-food-rag/pkg/rag/fusion"
)

// Builder assembles the single-shot generation prompt:
// system prompt, numbered context block, then the user question.
type Builder struct {
	systemPrompt string
}

func NewBuilder(systemPrompt string) *Builder {
	return &Builder{systemPrompt: systemPrompt}
}

func (b *Builder) Build(question string, results []fusion.FusedResult) string {
	var prompt strings.Builder

	b.writeSystem(&prompt)
	b.writeContext(&prompt, results)
	b.writeUserQuestion(&prompt, question)

	return prompt.String()
}

func (b *Builder) writeSystem(prompt *strings.Builder) {
	prompt.WriteString(strings.TrimSpace(b.systemPrompt))
	prompt.WriteString("\n\n")
}

func (b *Builder) writeContext(prompt *strings.Builder, results []fusion.FusedResult) {
	prompt.WriteString("CONTEXT INFORMATION:\n")
	for i, r := range results {
		prompt.WriteString(ContextLine(i+1, r))
		prompt.WriteString("\n")
	}
	prompt.WriteString("\n")
}

func (b *Builder) writeUserQuestion(prompt *strings.Builder, question string) {
	prompt.WriteString("USER QUESTION:\n")
	prompt.WriteString(strings.TrimSpace(question))
	prompt.WriteString("\n")
}

// ContextLine renders one fused item the way it appears both in the prompt
// and in the response's context_used list.
func ContextLine(n int, r fusion.FusedResult) string {
	return fmt.Sprintf("[%d] %s - %s", n, r.Item.Name, strings.TrimSpace(r.Item.Content))
}

package core

import (
	"context"
	"fmt"
	"log"
	"strings"
)

const systemInstruction = "You are a helpful and knowledgeable assistant. Use ONLY the information provided in the Context (documents) and the Conversation history below to answer. " +
	"Do NOT invent facts. If the answer cannot be found in the provided context, respond: 'I don't know'. " +
	"Provide comprehensive, detailed, and thorough answers. Explain concepts clearly with examples when possible. " +
	"Include relevant background information, step-by-step explanations, and practical insights from the provided sources. " +
	"Always cite sources when possible (e.g., [Source 1]). For follow-up questions, use the conversation history to resolve references " +
	"(for example, 'tell more' should refer to the previous topic and expand on it with additional details from the sources)."

const (
	maxExcerptChars = 500
	webRetryResults = 3
	minWebAnswerLen = 50
)

// dontKnowPhrases flag an answer that the model could not ground in
// the supplied context. Substring matching against free-form model
// output is fragile, but it is the established contract.
var dontKnowPhrases = []string{"don't know", "do not know", "cannot be found", "not contain"}

// AnswerGenerator builds grounded prompts and invokes the generation
// capability, retrying once against web search results when the model
// signals it does not know the answer.
type AnswerGenerator struct {
	gen Generator
	web WebSearcher
}

func NewAnswerGenerator(gen Generator, web WebSearcher) *AnswerGenerator {
	return &AnswerGenerator{gen: gen, web: web}
}

// Answer generates a response to question grounded in passages and
// history. It returns the answer text together with the passages that
// actually ground it (web results replace the originals only when a
// web-assisted retry produced a better answer). A failure of the
// primary generation call is fatal for the message; every failure in
// the retry path is swallowed and the original answer stands.
func (g *AnswerGenerator) Answer(ctx context.Context, question, history string, passages []Passage, temperature float32, maxTokensHint int) (string, []Passage, error) {
	prompt := buildPrompt("Context", passages, history, question,
		fmt.Sprintf("Please provide a detailed, comprehensive response (aim for %d tokens or more when appropriate). "+
			"Include explanations, examples, and thorough coverage of the topic based on the available sources.", maxTokensHint))

	answer, err := g.gen.Generate(ctx, prompt, temperature)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get chat completion: %w", err)
	}

	if containsDontKnow(answer) && g.web != nil {
		if webAnswer, webPassages, ok := g.webRetry(ctx, question, history, temperature); ok {
			return webAnswer, webPassages, nil
		}
	}
	return answer, passages, nil
}

// webRetry searches the web for the raw question and re-generates with
// a web-labeled context. The retry answer is adopted only when it is
// substantial and not itself a don't-know.
func (g *AnswerGenerator) webRetry(ctx context.Context, question, history string, temperature float32) (string, []Passage, bool) {
	webPassages, err := g.web.Search(ctx, question, webRetryResults)
	if err != nil {
		log.Printf("Web-assisted retry search failed, keeping original answer: %v", err)
		return "", nil, false
	}
	if len(webPassages) == 0 {
		return "", nil, false
	}

	prompt := buildWebPrompt(webPassages, history, question)
	webAnswer, err := g.gen.Generate(ctx, prompt, temperature)
	if err != nil {
		log.Printf("Web-assisted retry generation failed, keeping original answer: %v", err)
		return "", nil, false
	}

	if len(webAnswer) > minWebAnswerLen && !strings.Contains(strings.ToLower(webAnswer), "don't know") {
		return webAnswer, webPassages, true
	}
	return "", nil, false
}

func buildPrompt(contextLabel string, passages []Passage, history, question, closing string) string {
	var b strings.Builder
	b.WriteString(systemInstruction)
	b.WriteString("\n\n")
	b.WriteString(contextLabel)
	b.WriteString(":\n")
	b.WriteString(formatSourceBlocks(passages, "Source"))
	b.WriteString("\n\nConversation history:\n")
	b.WriteString(history)
	b.WriteString("\n\nUser: ")
	b.WriteString(question)
	b.WriteString("\n\n")
	b.WriteString(closing)
	b.WriteString("\n\nAssistant:")
	return b.String()
}

func buildWebPrompt(passages []Passage, history, question string) string {
	var b strings.Builder
	b.WriteString(systemInstruction)
	b.WriteString("\n\nContext (from web search):\n")
	b.WriteString(formatSourceBlocks(passages, "Web Source"))
	b.WriteString("\n\nConversation history:\n")
	b.WriteString(history)
	b.WriteString("\n\nUser: ")
	b.WriteString(question)
	b.WriteString("\n\nPlease provide a detailed, comprehensive response based on the web search results above.")
	b.WriteString("\n\nAssistant:")
	return b.String()
}

// formatSourceBlocks renders passages as numbered, origin-tagged
// blocks with excerpts capped at maxExcerptChars.
func formatSourceBlocks(passages []Passage, label string) string {
	blocks := make([]string, 0, len(passages))
	for i, p := range passages {
		src := ""
		if p.Source != nil {
			src = *p.Source
		}
		excerpt := p.Content
		if runes := []rune(excerpt); len(runes) > maxExcerptChars {
			excerpt = string(runes[:maxExcerptChars]) + "..."
		}
		blocks = append(blocks, fmt.Sprintf("[%s %d: %s]\n%s", label, i+1, src, excerpt))
	}
	return strings.Join(blocks, "\n\n")
}

func containsDontKnow(answer string) bool {
	lower := strings.ToLower(answer)
	for _, phrase := range dontKnowPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

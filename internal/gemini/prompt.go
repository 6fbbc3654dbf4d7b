package gemini

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultModel is used when a summarize call names no model.
	DefaultModel = "gemini-1.5-flash"
	// MaxInputChars bounds the page text sent for summarization.
	MaxInputChars = 30000
	// DefaultPrompt replaces a blank prompt.
	DefaultPrompt = "Please provide a concise summary of the following web page content using markdown formatting."
	// LanguageAuto asks for the source language.
	LanguageAuto = "auto"
)

// LanguageClause tells the model which language to answer in.
func LanguageClause(language string) string {
	if language == "" || language == LanguageAuto {
		return "Write the summary in the same language as the source content."
	}
	return "Write the summary in " + language + "."
}

// EffectivePrompt trims prompt and falls back to DefaultPrompt when blank.
func EffectivePrompt(prompt string) string {
	if p := strings.TrimSpace(prompt); p != "" {
		return p
	}
	return DefaultPrompt
}

// Truncate keeps the first max characters of text.
func Truncate(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i]
		}
		n++
	}
	return text
}

// BuildInstruction assembles the single text part sent to the model.
func BuildInstruction(in Input) string {
	var sb strings.Builder
	sb.WriteString(EffectivePrompt(in.Prompt))
	sb.WriteByte(' ')
	sb.WriteString(LanguageClause(in.Language))
	sb.WriteString("\n\n")
	sb.WriteString(Truncate(in.Text, MaxInputChars))
	return sb.String()
}

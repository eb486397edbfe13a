package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/extractor.txt
	extractorRaw string

	//go:embed template/help.txt
	helpRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Extractor string
	Help      string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings. Safe to call
// concurrently; the embed is compile-time and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Extractor: strings.TrimSpace(extractorRaw),
		Help:      strings.TrimSpace(helpRaw),
	}
}

package translator

import (
	"fmt"
	"strings"

	"github.com/valpere/pagetran/internal/glossary"
	"github.com/valpere/pagetran/internal/placeholder"
)

func buildSystemPrompt(sourceName, targetName string) string {
	return fmt.Sprintf("You are a technical translator. Translate directly from %s to %s without explanation. "+
		"Do NOT use <think> tags or any thinking process. Output only the final %s translation.",
		sourceName, targetName, targetName)
}

type promptInput struct {
	SourceName string
	TargetName string
	Text       string
	Context    string
	Previous   string
	Terms      glossary.Terms
	Markers    bool
}

func buildPrompt(in promptInput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Translate the following %s text to %s. Output ONLY the %s translation, nothing else.",
		in.SourceName, in.TargetName, in.TargetName)

	if in.Markers {
		sb.WriteString("\n")
		sb.WriteString(placeholder.InstructionHint())
	}

	if len(in.Terms) > 0 {
		sb.WriteString("\n\nUse these terminology translations:\n")
		for _, term := range in.Terms.Sorted() {
			fmt.Fprintf(&sb, "%s → %s\n", term.Source, term.Target)
		}
	}

	if in.Context != "" {
		fmt.Fprintf(&sb, "\nDocument context: %s\n", in.Context)
	}
	if in.Previous != "" {
		fmt.Fprintf(&sb, "\nPreceding text (for continuity, do not translate): %s\n", in.Previous)
	}

	fmt.Fprintf(&sb, "\n%s:\n%s\n\n%s:", in.SourceName, in.Text, in.TargetName)
	return sb.String()
}

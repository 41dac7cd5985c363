package llm

import (
	"fmt"
	"strings"

	"lisa/internal/domain/services"
)

// BuildUserMessage renders the document instruction followed by the source
// material, one section per folder in reference order.
func BuildUserMessage(req *services.GenerationRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Document type: %s\n\n", req.DocumentType)
	if instruction := strings.TrimSpace(req.Instruction); instruction != "" {
		b.WriteString(instruction)
		b.WriteString("\n\n")
	}

	if len(req.Sources) == 0 {
		b.WriteString("No source material was provided.\n")
		return b.String()
	}

	b.WriteString("Source material:\n")
	for _, material := range req.Sources {
		fmt.Fprintf(&b, "\n## Folder %d (%s)\n", material.Ref.Position+1, material.Ref.FolderID)
		if len(material.Files) == 0 {
			b.WriteString("(no readable files)\n")
			continue
		}
		for _, file := range material.Files {
			fmt.Fprintf(&b, "\n### %s\n\n", file.Name)
			b.WriteString(strings.TrimSpace(file.Text))
			b.WriteString("\n")
		}
	}
	return b.String()
}

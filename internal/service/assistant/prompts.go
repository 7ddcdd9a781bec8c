package assistant

import (
	"fmt"
	"strings"

	"github.com/Alijeyrad/formora_backend/internal/form"
)

const (
	generalSamples = 10
	customSamples  = 15
)

const generatorSystem = `You are an expert form builder. Create a complete form from the user's requirements.

Return ONLY a JSON object, with no prose and no markdown fences, shaped like:
{
  "title": "Descriptive form title",
  "description": "Brief description of the form's purpose",
  "fields": [
    {
      "id": "field_1",
      "type": "text|email|number|textarea|select|radio|checkbox|date|file",
      "label": "Clear field label",
      "placeholder": "Helpful placeholder text",
      "required": true,
      "options": ["Option A", "Option B", "Option C"]
    }
  ]
}

Rules:
1. Create 3 to 8 fields relevant to the request.
2. Use the field type that fits the data being collected.
3. Mark fields required when the form cannot work without them.
4. Give every field a helpful placeholder.
5. select, radio and checkbox fields get 3 to 5 options.
6. Number the ids sequentially: field_1, field_2 and so on.
7. Only select, radio and checkbox fields carry "options".`

const analystSystem = `You analyze survey responses for the person who built the form. ` +
	`Base every statement on the response data you are given and answer in plain text.`

func generationPrompt(request string) string {
	return fmt.Sprintf("User request: %q", strings.TrimSpace(request))
}

// analysisPrompt asks for general insights, or for an answer to question
// when one is given. Only the first few responses are quoted.
func analysisPrompt(f form.Form, responses []form.Response, question string) string {
	question = strings.TrimSpace(question)
	limit := generalSamples
	if question != "" {
		limit = customSamples
	}

	var b strings.Builder
	if question != "" {
		fmt.Fprintf(&b, "Analyze these form responses to answer this question: %q\n\n", question)
	} else {
		b.WriteString("Analyze these form responses and provide insights.\n\n")
	}
	fmt.Fprintf(&b, "Form: %q\n", f.Title)
	if f.Description != "" {
		fmt.Fprintf(&b, "Description: %q\n", f.Description)
	}
	fmt.Fprintf(&b, "Total responses: %d\n\n", len(responses))

	writeSamples(&b, f, responses[:min(limit, len(responses))])

	if question != "" {
		fmt.Fprintf(&b, "\nQuestion: %s\n\n", question)
		b.WriteString("Answer the question directly from the response data. Cite examples where they help. Keep it under 300 words.\n")
		return b.String()
	}
	b.WriteString("\nCover:\n")
	b.WriteString("1. Key patterns and trends in the answers\n")
	b.WriteString("2. The most common answers and themes\n")
	b.WriteString("3. Notable outliers\n")
	b.WriteString("4. Actionable recommendations for the form owner\n")
	b.WriteString("Focus on what respondents said, not on the form structure. Keep it under 250 words.\n")
	return b.String()
}

func writeSamples(b *strings.Builder, f form.Form, responses []form.Response) {
	for i, r := range responses {
		fmt.Fprintf(b, "Response %d:\n", i+1)
		for _, fd := range f.Fields {
			v, ok := r.Values[fd.ID]
			if !ok {
				continue
			}
			text := form.CellText(v)
			if text == "" {
				continue
			}
			fmt.Fprintf(b, "- %s: %s\n", fd.Label, text)
		}
	}
}

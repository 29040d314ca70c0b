package llm

import (
	"fmt"
	"strings"

	"github.com/feichai0017/relevance-finder/internal/models"
)

const verdictSchema = `{
  "page_no": "number",
  "is_relevant": "boolean"
}`

const systemPrompt = "You are an AI assistant that decides whether a page of a document is relevant to the user's query and answers in JSON.\n" +
	"The JSON object must use the schema: " + verdictSchema

func userPrompt(query string, page models.Page) string {
	return fmt.Sprintf(`User query: %s
Page number: %d
Page content: %s
Please answer with a JSON object that contains the following fields:
- page_no: The page number of the PDF file
- is_relevant: A boolean value that indicates whether the page is relevant to the user's query
The JSON object must use the schema: %s`, query, page.Number, page.Content, verdictSchema)
}

// stripFences removes a markdown code fence some models wrap JSON answers in.
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

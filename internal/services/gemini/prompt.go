package gemini

// visionPrompt instructs the model to describe one image as structured data.
const visionPrompt = `Analyze this image carefully.
1. Categorize it into exactly one of: nature, urban, people, food, travel, other.
2. Provide a short, poetic, and descriptive title.
3. Estimate the date (YYYY-MM).
4. List 5-8 descriptive tags (objects, colors, moods, scenes, or people types) found in the image.`

// analysisSchema constrains the model response to the analysis payload shape.
var analysisSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"category":    map[string]any{"type": "STRING"},
		"title":       map[string]any{"type": "STRING"},
		"guessedDate": map[string]any{"type": "STRING"},
		"tags": map[string]any{
			"type":        "ARRAY",
			"items":       map[string]any{"type": "STRING"},
			"description": "A list of descriptive labels for search and organization",
		},
	},
	"required": []string{"category", "title", "tags"},
}

package extract_rules

// ExtractionSchema is the JSON schema for rule extraction output.
var ExtractionSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "rule_extraction",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"rules": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"chapter": map[string]any{
								"type":        "string",
								"description": "Chapter number as a decimal string",
							},
							"section": map[string]any{
								"type":        "string",
								"description": "Second component of the clause number",
							},
							"clause": map[string]any{
								"type":        "string",
								"description": "Full dotted clause number as printed (e.g., '3.2.1')",
							},
							"subClause": map[string]any{
								"type":        []string{"string", "null"},
								"description": "Components after the third, or null",
							},
							"title": map[string]any{
								"type": "string",
							},
							"summary": map[string]any{
								"type":        "string",
								"description": "First sentence, at most 150 characters",
							},
							"fullText": map[string]any{
								"type":        "string",
								"description": "Verbatim rule text from the chunk",
							},
							"category": map[string]any{
								"type": []string{"string", "null"},
							},
							"applicableZones": map[string]any{
								"type":  "array",
								"items": map[string]any{"type": "string"},
							},
							"applicableDistricts": map[string]any{
								"type":  "array",
								"items": map[string]any{"type": "string"},
							},
							"isMumbaiSpecific": map[string]any{
								"type": "boolean",
							},
						},
						"required":             []string{"chapter", "section", "clause", "summary", "fullText"},
						"additionalProperties": false,
					},
					"description": "All rules in the chunk, in document order",
				},
			},
			"required":             []string{"rules"},
			"additionalProperties": false,
		},
	},
}

// Record is one rule as returned by the model.
type Record struct {
	Chapter             string   `json:"chapter"`
	Section             string   `json:"section"`
	Clause              string   `json:"clause"`
	SubClause           *string  `json:"subClause"`
	Title               string   `json:"title"`
	Summary             string   `json:"summary"`
	FullText            string   `json:"fullText"`
	Category            *string  `json:"category"`
	ApplicableZones     []string `json:"applicableZones"`
	ApplicableDistricts []string `json:"applicableDistricts"`
	IsMumbaiSpecific    bool     `json:"isMumbaiSpecific"`
}

// Result represents the parsed result from rule extraction.
type Result struct {
	Rules []Record `json:"rules"`
}

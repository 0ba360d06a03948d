package model

// RawLine is one unparsed line read from a watched metrics log.
type RawLine struct {
	Text   string `json:"text"`
	Source string `json:"source"` // originating file path
}

// Record is one parsed metric update: a partial mapping of field name to
// value. Values are float64 for numbers, bool, or string.
type Record struct {
	Fields map[string]any `json:"fields"`
	Source string         `json:"source"`
}

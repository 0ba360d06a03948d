package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/atikulmunna/weft/internal/model"

	"github.com/go-logfmt/logfmt"
)

// Parser converts a raw log line into a metric Record. The second return
// value is false when the line carries no metrics and should be skipped.
type Parser interface {
	Parse(raw string, source string) (model.Record, bool)
}

// ---------------------------------------------------------------------------
// JSON Parser
// ---------------------------------------------------------------------------

// JSONParser handles JSON-object metric lines, e.g. {"step":1,"loss":0.42}.
// Numbers decode as float64, which is what best-value comparison wants.
type JSONParser struct{}

func NewJSONParser() *JSONParser { return &JSONParser{} }

func (p *JSONParser) Parse(raw string, source string) (model.Record, bool) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || len(fields) == 0 {
		return model.Record{}, false
	}

	// Nested objects and arrays are not metric values; flatten them to their
	// textual form so they still render as a cell.
	for k, v := range fields {
		switch v.(type) {
		case map[string]any, []any:
			fields[k] = fmt.Sprintf("%v", v)
		}
	}

	return model.Record{Fields: fields, Source: source}, true
}

// ---------------------------------------------------------------------------
// Logfmt Parser
// ---------------------------------------------------------------------------

// LogfmtParser handles key=value metric lines, e.g. "step=1 loss=0.42".
type LogfmtParser struct{}

func NewLogfmtParser() *LogfmtParser { return &LogfmtParser{} }

func (p *LogfmtParser) Parse(raw string, source string) (model.Record, bool) {
	if !strings.Contains(raw, "=") {
		return model.Record{}, false
	}

	fields := make(map[string]any)
	dec := logfmt.NewDecoder(strings.NewReader(raw))
	for dec.ScanRecord() {
		for dec.ScanKeyval() {
			key := string(dec.Key())
			if key == "" {
				continue
			}
			fields[key] = coerce(string(dec.Value()))
		}
	}
	if dec.Err() != nil || len(fields) == 0 {
		return model.Record{}, false
	}

	return model.Record{Fields: fields, Source: source}, true
}

// ---------------------------------------------------------------------------
// Regex Parser (user-defined patterns)
// ---------------------------------------------------------------------------

// RegexParser extracts metrics with a user-supplied regex. Every named
// capture group becomes a field; group values are numerically coerced.
type RegexParser struct {
	re *regexp.Regexp
}

func NewRegexParser(pattern string) (*RegexParser, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}
	return &RegexParser{re: re}, nil
}

func (p *RegexParser) Parse(raw string, source string) (model.Record, bool) {
	matches := p.re.FindStringSubmatch(raw)
	if matches == nil {
		return model.Record{}, false
	}

	fields := make(map[string]any)
	for i, name := range p.re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		fields[name] = coerce(matches[i])
	}
	if len(fields) == 0 {
		return model.Record{}, false
	}

	return model.Record{Fields: fields, Source: source}, true
}

// ---------------------------------------------------------------------------
// Auto Parser (format auto-detection)
// ---------------------------------------------------------------------------

// AutoParser tries parsers in order: JSON → logfmt.
type AutoParser struct {
	jsonParser   *JSONParser
	logfmtParser *LogfmtParser
}

func NewAutoParser() *AutoParser {
	return &AutoParser{
		jsonParser:   NewJSONParser(),
		logfmtParser: NewLogfmtParser(),
	}
}

func (p *AutoParser) Parse(raw string, source string) (model.Record, bool) {
	trimmed := strings.TrimSpace(raw)

	if len(trimmed) > 0 && trimmed[0] == '{' {
		if rec, ok := p.jsonParser.Parse(trimmed, source); ok {
			return rec, true
		}
	}

	return p.logfmtParser.Parse(raw, source)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// coerce converts a textual value to float64 or bool where possible.
func coerce(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

package parser

import (
	"testing"
)

func TestJSONParser(t *testing.T) {
	p := NewJSONParser()

	rec, ok := p.Parse(`{"step":1,"loss":0.42,"phase":"train"}`, "runs/train.log")
	if !ok {
		t.Fatal("expected JSON line to parse")
	}
	if rec.Source != "runs/train.log" {
		t.Errorf("expected source runs/train.log, got %q", rec.Source)
	}
	if rec.Fields["step"] != 1.0 {
		t.Errorf("expected step 1.0, got %v", rec.Fields["step"])
	}
	if rec.Fields["loss"] != 0.42 {
		t.Errorf("expected loss 0.42, got %v", rec.Fields["loss"])
	}
	if rec.Fields["phase"] != "train" {
		t.Errorf("expected phase train, got %v", rec.Fields["phase"])
	}
}

func TestJSONParserNestedValues(t *testing.T) {
	p := NewJSONParser()

	rec, ok := p.Parse(`{"step":1,"scores":{"p":0.9}}`, "train.log")
	if !ok {
		t.Fatal("expected JSON line to parse")
	}
	if _, isString := rec.Fields["scores"].(string); !isString {
		t.Errorf("expected nested value flattened to string, got %T", rec.Fields["scores"])
	}
}

func TestJSONParserInvalid(t *testing.T) {
	p := NewJSONParser()

	if _, ok := p.Parse("not json at all", "train.log"); ok {
		t.Error("expected non-JSON line to be skipped")
	}
	if _, ok := p.Parse("{}", "train.log"); ok {
		t.Error("expected empty object to be skipped")
	}
}

func TestLogfmtParser(t *testing.T) {
	p := NewLogfmtParser()

	rec, ok := p.Parse(`step=3 loss=0.81 lr=0.001 phase=eval`, "train.log")
	if !ok {
		t.Fatal("expected logfmt line to parse")
	}
	if rec.Fields["step"] != 3.0 {
		t.Errorf("expected step 3.0, got %v", rec.Fields["step"])
	}
	if rec.Fields["loss"] != 0.81 {
		t.Errorf("expected loss 0.81, got %v", rec.Fields["loss"])
	}
	if rec.Fields["phase"] != "eval" {
		t.Errorf("expected phase eval, got %v", rec.Fields["phase"])
	}
}

func TestLogfmtParserQuotedValues(t *testing.T) {
	p := NewLogfmtParser()

	rec, ok := p.Parse(`step=1 note="slow batch"`, "train.log")
	if !ok {
		t.Fatal("expected logfmt line to parse")
	}
	if rec.Fields["note"] != "slow batch" {
		t.Errorf("expected quoted value unwrapped, got %v", rec.Fields["note"])
	}
}

func TestLogfmtParserNoPairs(t *testing.T) {
	p := NewLogfmtParser()

	if _, ok := p.Parse("plain message without pairs", "train.log"); ok {
		t.Error("expected line without key=value pairs to be skipped")
	}
}

func TestRegexParser(t *testing.T) {
	p, err := NewRegexParser(`^epoch (?P<epoch>\d+): loss=(?P<loss>[\d.]+)$`)
	if err != nil {
		t.Fatal(err)
	}

	rec, ok := p.Parse("epoch 7: loss=0.231", "train.log")
	if !ok {
		t.Fatal("expected matching line to parse")
	}
	if rec.Fields["epoch"] != 7.0 {
		t.Errorf("expected epoch 7.0, got %v", rec.Fields["epoch"])
	}
	if rec.Fields["loss"] != 0.231 {
		t.Errorf("expected loss 0.231, got %v", rec.Fields["loss"])
	}

	if _, ok := p.Parse("unrelated line", "train.log"); ok {
		t.Error("expected non-matching line to be skipped")
	}
}

func TestRegexParserInvalidPattern(t *testing.T) {
	if _, err := NewRegexParser(`[invalid`); err == nil {
		t.Error("expected error for invalid regex")
	}
}

func TestAutoParserJSON(t *testing.T) {
	p := NewAutoParser()

	rec, ok := p.Parse(`{"step":1,"loss":0.5}`, "train.log")
	if !ok {
		t.Fatal("expected JSON line to parse")
	}
	if rec.Fields["loss"] != 0.5 {
		t.Errorf("expected loss 0.5, got %v", rec.Fields["loss"])
	}
}

func TestAutoParserLogfmt(t *testing.T) {
	p := NewAutoParser()

	rec, ok := p.Parse("step=2 acc=0.93", "train.log")
	if !ok {
		t.Fatal("expected logfmt line to parse")
	}
	if rec.Fields["acc"] != 0.93 {
		t.Errorf("expected acc 0.93, got %v", rec.Fields["acc"])
	}
}

func TestAutoParserPlainText(t *testing.T) {
	p := NewAutoParser()

	if _, ok := p.Parse("saving checkpoint to disk", "train.log"); ok {
		t.Error("expected plain text line to be skipped")
	}
}

func TestCoerce(t *testing.T) {
	if v := coerce("0.5"); v != 0.5 {
		t.Errorf("expected float 0.5, got %v (%T)", v, v)
	}
	if v := coerce("true"); v != true {
		t.Errorf("expected bool true, got %v (%T)", v, v)
	}
	if v := coerce("hello"); v != "hello" {
		t.Errorf("expected string hello, got %v (%T)", v, v)
	}
}

package parser

import "testing"

// BenchmarkAutoParser measures format detection plus parsing, the cost paid
// once per tailed line.
func BenchmarkAutoParserJSON(b *testing.B) {
	p := NewAutoParser()
	line := `{"step":12,"loss":0.4312,"task_precision":0.88,"task_recall":0.79}`

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p.Parse(line, "bench.log")
	}
}

func BenchmarkAutoParserLogfmt(b *testing.B) {
	p := NewAutoParser()
	line := `step=12 loss=0.4312 task_precision=0.88 task_recall=0.79`

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p.Parse(line, "bench.log")
	}
}

func BenchmarkRegexParser(b *testing.B) {
	p, err := NewRegexParser(`^epoch (?P<epoch>\d+): loss=(?P<loss>[\d.]+)`)
	if err != nil {
		b.Fatal(err)
	}
	line := "epoch 42: loss=0.1234"

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p.Parse(line, "bench.log")
	}
}

package json

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
)

// BenchmarkNormalizeArray measures the streaming array path end to end.
func BenchmarkNormalizeArray(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("[\n")
	for i := 0; i < 5000; i++ {
		if i > 0 {
			sb.WriteString(",\n")
		}
		fmt.Fprintf(&sb, `  {"id": "0704.%04d", "title": "Paper %d", "update_date": "2008-12-13"}`, i, i)
	}
	sb.WriteString("\n]\n")
	doc := sb.String()

	b.SetBytes(int64(len(doc)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Normalize(context.Background(), strings.NewReader(doc), io.Discard, Options{}); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkNormalizeNDJSON measures the passthrough path.
func BenchmarkNormalizeNDJSON(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 5000; i++ {
		fmt.Fprintf(&sb, `{"id": "0704.%04d", "title": "Paper %d"}`+"\n", i, i)
	}
	doc := sb.String()

	b.SetBytes(int64(len(doc)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Normalize(context.Background(), strings.NewReader(doc), io.Discard, Options{}); err != nil {
			b.Fatal(err)
		}
	}
}

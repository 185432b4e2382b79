package filter

import (
	"fmt"
	"testing"
)

// generateTestRecords creates cinema-shaped test records
func generateTestRecords(count int) []map[string]any {
	cities := []string{"Berlin", "Hamburg", "München", "Köln", "Frankfurt"}

	records := make([]map[string]any, count)
	for i := 0; i < count; i++ {
		records[i] = map[string]any{
			"id":          float64(i),
			"name":        fmt.Sprintf("Cinema %d", i),
			"city":        cities[i%len(cities)],
			"countryCode": "DE",
			"releaseDate": fmt.Sprintf("202%d-0%d-01", i%5, i%9+1),
		}
	}
	return records
}

// Benchmark filter compilation
func BenchmarkCompile(b *testing.B) {
	expressions := []struct {
		name string
		expr string
	}{
		{"simple", `city == "Berlin"`},
		{"complex", `countryCode == "DE" && contains(name, "cinema") && id > 100`},
	}

	for _, tc := range expressions {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, err := Compile(tc.expr)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// Benchmark evaluation over a listing-sized record set
func BenchmarkMatch(b *testing.B) {
	records := generateTestRecords(1000)
	f, err := Compile(`city == "Berlin" && id > 100`)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		matches := 0
		for _, record := range records {
			if f.Match(record) {
				matches++
			}
		}
		_ = matches
	}
}

package codec

import (
	"fmt"
	"testing"
)

func benchDocument() document {
	entries := make(map[string][]float64, 1000)
	for i := range 1000 {
		list := make([]float64, 11)
		for j := range list {
			list[j] = float64(i*11 + j)
		}
		entries[fmt.Sprintf("price#category_=c%d&company_=v%d", i%37, i)] = list
	}
	return document{Gap: 10, Entries: entries, Names: []string{"price"}}
}

func BenchmarkCodecs(b *testing.B) {
	doc := benchDocument()

	for _, name := range Names() {
		c, _ := ByName(name)

		b.Run(name+"/marshal", func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := c.Marshal(doc); err != nil {
					b.Fatal(err)
				}
			}
		})

		data := MustMarshal(c, doc)
		b.Run(name+"/unmarshal", func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			for b.Loop() {
				var out document
				if err := c.Unmarshal(data, &out); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCompress(b *testing.B) {
	data := MustMarshal(GoJSON{}, benchDocument())

	for _, c := range []Compression{CompressionLZ4, CompressionZSTD} {
		b.Run(c.String(), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			for b.Loop() {
				if _, err := Compress(data, c); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

package join

import (
	"strconv"
	"testing"

	"github.com/leengari/zeptodb/internal/domain/schema"
)

const benchmarkRows = 300

// createBenchmarkTables builds furniture(location, value) with rows (i, i)
// and houses(number, value) with rows (i, n-i). Every left row except
// value 0 has exactly one match.
func createBenchmarkTables(b *testing.B, n int) (*schema.Table, *schema.Table) {
	b.Helper()
	furniture := schema.NewEmpty("furniture", []string{"location", "value"})
	houses := schema.NewEmpty("houses", []string{"number", "value"})
	for i := 0; i < n; i++ {
		if err := furniture.InsertRow([]string{strconv.Itoa(i), strconv.Itoa(i)}); err != nil {
			b.Fatal(err)
		}
		if err := houses.InsertRow([]string{strconv.Itoa(i), strconv.Itoa(n - i)}); err != nil {
			b.Fatal(err)
		}
	}
	return furniture, houses
}

func BenchmarkLeftJoinNaive(b *testing.B) {
	furniture, houses := createBenchmarkTables(b, benchmarkRows)
	b.ResetTimer()
	for b.Loop() {
		if _, err := LeftNaive(furniture, houses, "value"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLeftJoinHashed(b *testing.B) {
	furniture, houses := createBenchmarkTables(b, benchmarkRows)
	b.ResetTimer()
	for b.Loop() {
		if _, err := LeftHashed(furniture, houses, "value"); err != nil {
			b.Fatal(err)
		}
	}
}

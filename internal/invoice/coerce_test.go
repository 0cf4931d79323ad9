package invoice

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/quickquote/internal/domain/entity"
)

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		name string
		raw  json.RawMessage
		want float64
		ok   bool
	}{
		{"absent uses fallback", nil, 7, true},
		{"json number", json.RawMessage(`12.5`), 12.5, true},
		{"negative number", json.RawMessage(`-3`), -3, true},
		{"numeric string", json.RawMessage(`"80"`), 80, true},
		{"padded string", json.RawMessage(`"  95.5 "`), 95.5, true},
		{"exponent string", json.RawMessage(`"1e2"`), 100, true},
		{"bool true", json.RawMessage(`true`), 1, true},
		{"bool false", json.RawMessage(`false`), 0, true},
		{"null", json.RawMessage(`null`), 0, false},
		{"word", json.RawMessage(`"bad"`), 0, false},
		{"currency symbol", json.RawMessage(`"$80"`), 0, false},
		{"empty string", json.RawMessage(`""`), 0, false},
		{"object", json.RawMessage(`{"v":1}`), 0, false},
		{"array", json.RawMessage(`[1]`), 0, false},
		{"infinite string", json.RawMessage(`"inf"`), 0, false},
		{"nan string", json.RawMessage(`"NaN"`), 0, false},
		{"hex string", json.RawMessage(`"0x1p4"`), 0, false},
		{"signed hex string", json.RawMessage(`"-0X10"`), 0, false},
		{"leading zero string", json.RawMessage(`"007"`), 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerceNumber(tt.raw, 7)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestCoerceItem_Defaults(t *testing.T) {
	t.Run("missing quantity counts as one", func(t *testing.T) {
		row, ok := CoerceItem(entity.NewLineItem("Materials", nil, 50))
		require.True(t, ok)
		assert.Equal(t, 1.0, row.Quantity)
		assert.Equal(t, 50.0, row.LineTotal)
	})

	t.Run("missing price counts as zero", func(t *testing.T) {
		row, ok := CoerceItem(entity.NewLineItem("Visit", 3, nil))
		require.True(t, ok)
		assert.Equal(t, 0.0, row.LineTotal)
	})

	t.Run("malformed element is skipped", func(t *testing.T) {
		_, ok := CoerceItem(entity.LineItem{Malformed: true})
		assert.False(t, ok)
	})
}

func TestBuildTable_SkipPolicy(t *testing.T) {
	items := []entity.LineItem{
		entity.NewLineItem("A", "2", "10"),
		entity.NewLineItem("B", "bad", "5"),
	}

	table := BuildTable(items)

	require.Len(t, table.Rows, 1)
	assert.Equal(t, "A", table.Rows[0].Description)
	assert.Equal(t, 1, table.Skipped)
	assert.InDelta(t, 20.0, table.GrandTotal, 1e-9)
}

func TestBuildTable_SkipsItemThatOverflowsTotal(t *testing.T) {
	items := []entity.LineItem{
		entity.NewLineItem("big", 1, 1e308),
		entity.NewLineItem("bigger", 1, 1e308),
		entity.NewLineItem("small", 2, 5),
	}

	table := BuildTable(items)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, "big", table.Rows[0].Description)
	assert.Equal(t, "small", table.Rows[1].Description)
	assert.Equal(t, 1, table.Skipped)
	assert.False(t, math.IsInf(table.GrandTotal, 0))
}

func TestBuildTable_Empty(t *testing.T) {
	table := BuildTable(nil)

	assert.Empty(t, table.Rows)
	assert.Zero(t, table.GrandTotal)
	assert.Zero(t, table.Skipped)
}

func TestBuildTable_TotalMatchesSumOfValidItems(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))

	for round := 0; round < 50; round++ {
		var items []entity.LineItem
		want := 0.0
		n := rng.IntN(30)
		for i := 0; i < n; i++ {
			qty := float64(rng.IntN(100)) / 4
			price := float64(rng.IntN(100000)) / 100
			if rng.IntN(5) == 0 {
				items = append(items, entity.NewLineItem("broken", "n/a", price))
				continue
			}
			items = append(items, entity.NewLineItem("ok", qty, price))
			want += qty * price
		}

		table := BuildTable(items)
		assert.InDelta(t, want, table.GrandTotal, 1e-6)

		sum := 0.0
		for _, row := range table.Rows {
			sum += row.LineTotal
		}
		assert.InDelta(t, sum, table.GrandTotal, 1e-6)
	}
}

func TestRow_DisplayQuantity(t *testing.T) {
	assert.Equal(t, "2", Row{Quantity: 2.5}.DisplayQuantity())
	assert.Equal(t, "10", Row{Quantity: 10}.DisplayQuantity())
	assert.Equal(t, "0", Row{Quantity: -0.5}.DisplayQuantity())
	assert.Equal(t, "-3", Row{Quantity: -3.9}.DisplayQuantity())
}

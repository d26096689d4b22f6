package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexNumberScan(t *testing.T) {
	tests := []struct {
		name      string
		src       any
		wantValid bool
		wantValue float64
	}{
		{"float", 297.0, true, 297},
		{"int64", int64(480), true, 480},
		{"numeric string", "480", true, 480},
		{"decimal string", "297.00", true, 297},
		{"decorated string", "$297.00 USD", true, 297},
		{"comma decimal", "297,50", true, 297.5},
		{"bytes", []byte("12"), true, 12},
		{"nil", nil, false, 0},
		{"garbage", "doce", false, 0},
		{"empty string", "", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n FlexNumber
			require.NoError(t, n.Scan(tt.src))
			assert.Equal(t, tt.wantValid, n.Valid)
			if tt.wantValid {
				assert.InDelta(t, tt.wantValue, n.Value, 0.001)
			}
		})
	}
}

func TestFlexNumberJSON(t *testing.T) {
	var payload struct {
		Price    FlexNumber `json:"price"`
		Duration FlexNumber `json:"duration"`
		Missing  FlexNumber `json:"missing"`
	}
	raw := `{"price": "297.00", "duration": 480, "missing": null}`
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	assert.True(t, payload.Price.Valid)
	assert.InDelta(t, 297.0, payload.Price.Value, 0.001)
	assert.True(t, payload.Duration.Valid)
	assert.False(t, payload.Missing.Valid)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":297,"duration":480,"missing":null}`, string(out))
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		name  string
		price FlexNumber
		want  string
	}{
		{"integer dollars", Num(297), "$297 USD"},
		{"fractional", Num(99.5), "$99.50 USD"},
		{"invalid", FlexNumber{}, Placeholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPrice(tt.price, "USD"))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name    string
		minutes FlexNumber
		want    string
	}{
		{"under an hour", Num(45), "45m"},
		{"exactly an hour", Num(60), "1h 0m"},
		{"hours and minutes", Num(480), "8h 0m"},
		{"mixed", Num(95), "1h 35m"},
		{"invalid", FlexNumber{}, Placeholder},
		{"negative", Num(-10), Placeholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.minutes))
		})
	}
}

func TestTextOrPlaceholder(t *testing.T) {
	level := "intermedio"
	blank := "   "
	assert.Equal(t, "intermedio", TextOrPlaceholder(&level))
	assert.Equal(t, Placeholder, TextOrPlaceholder(nil))
	assert.Equal(t, Placeholder, TextOrPlaceholder(&blank))
}

func TestBonusRemainingClaims(t *testing.T) {
	assert.Equal(t, 3, Bonus{MaxClaims: 10, CurrentClaims: 7}.RemainingClaims())
	assert.Equal(t, 0, Bonus{MaxClaims: 5, CurrentClaims: 9}.RemainingClaims())
}

package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-statement-normalizer/internal/models"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"500.00", "500", true},
		{"500,00", "500", true},
		{"12450,00", "12450", true},
		{"10,000.00", "10000", true},
		{"1,00,000.00", "100000", true},
		{"1.234,56", "1234.56", true},
		{"10,000", "10000", true},
		{"-250.00", "-250", true},
		{"250.00-", "-250", true},
		{"(1,250.50)", "-1250.5", true},
		{"₹ 1,234.00", "1234", true},
		{"Rs. 99.90", "99.9", true},
		{"$5", "5", true},
		{"1 500,25 EUR", "1500.25", true},
		{"1,250.00 Cr", "1250", true},
		{"980.00Dr", "980", true},
		{"+42", "42", true},
		{"0.00", "0", true},
		{"", "", false},
		{"   ", "", false},
		{"01-01-2024", "", false},
		{"15/03/2024", "", false},
		{"REF123", "", false},
		{"ATM WITHDRAWAL", "", false},
		{"1.2.3", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseAmount(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
			}
		})
	}
}

func TestDirectionMarker(t *testing.T) {
	tests := []struct {
		raw  string
		want models.Direction
		ok   bool
	}{
		{"1,250.00 Cr", models.DirectionCredit, true},
		{"1,250.00 CR.", models.DirectionCredit, true},
		{"980.00Dr", models.DirectionDebit, true},
		{"980.00", "", false},
		{"Cr", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := DirectionMarker(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmountRoundTrip(t *testing.T) {
	for _, raw := range []string{"500,00", "10,000.00", "0.5", "123456789.99", "(42.10)"} {
		first, ok := ParseAmount(raw)
		require.True(t, ok, raw)

		second, ok := ParseAmount(FormatAmount(first))
		require.True(t, ok, raw)
		assert.True(t, first.Equal(second), "%s: %s != %s", raw, first, second)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"01-01-2024", "2024-01-01", true},
		{"15/03/2024", "2024-03-15", true},
		{"15.03.2024", "2024-03-15", true},
		{"15/03/24", "2024-03-15", true},
		{"15-03-69", "2069-03-15", true},
		{"15-03-70", "1970-03-15", true},
		{"15 Mar 2024", "2024-03-15", true},
		{"15-MAR-2024", "2024-03-15", true},
		{"15 March 2024", "2024-03-15", true},
		{"2024-03-15", "2024-03-15", true},
		{"2024-03-15 10:30:00", "2024-03-15", true},
		{"2024-03-15T10:30:00", "2024-03-15", true},
		{"03/25/2024", "2024-03-25", true},
		{"5/3/2024", "2024-03-05", true},
		{"Mar 5, 2024", "2024-03-05", true},
		{"*15/03/2024*", "2024-03-15", true},
		{"31/02/2024", "", false},
		{"B/F", "", false},
		{"", "", false},
		{"ATM WITHDRAWAL", "", false},
		{"45292", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseDate(tt.raw, DefaultDateLayouts)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, FormatDate(got))
				assert.Equal(t, time.UTC, got.Location())
			}
		})
	}
}

func TestDateRoundTrip(t *testing.T) {
	for _, raw := range []string{"01-01-2024", "29/02/2024", "15 Mar 2024", "31.12.99"} {
		first, ok := ParseDate(raw, DefaultDateLayouts)
		require.True(t, ok, raw)

		second, ok := ParseDate(FormatDate(first), DefaultDateLayouts)
		require.True(t, ok, raw)
		assert.True(t, first.Equal(second), raw)
	}
}

func TestLooksLikeDate(t *testing.T) {
	assert.True(t, LooksLikeDate("01-01-2024"))
	assert.True(t, LooksLikeDate("2024/01/15"))
	assert.True(t, LooksLikeDate("15 Mar 2024"))
	assert.True(t, LooksLikeDate("15-Mar-24"))
	assert.False(t, LooksLikeDate("ATM WITHDRAWAL"))
	assert.False(t, LooksLikeDate("10,000.00"))
	assert.False(t, LooksLikeDate("15 TRANSFER 2024"))
}

func TestLeadingDate(t *testing.T) {
	got, ok := LeadingDate("15-03-2024 B/F 10,000.00")
	require.True(t, ok)
	assert.Equal(t, "15-03-2024", got)

	_, ok = LeadingDate("Opening balance 15-03-2024")
	assert.False(t, ok)
}

func TestDateSpans(t *testing.T) {
	spans := DateSpans("01-01-2024 ATM 500.00 02-01-2024 NEFT 300.00")
	require.Len(t, spans, 2)
	assert.Equal(t, 0, spans[0][0])
	assert.Equal(t, 22, spans[1][0])
}

func TestExcelSerialDate(t *testing.T) {
	got, ok := ExcelSerialDate("45292")
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", FormatDate(got))

	_, ok = ExcelSerialDate("not a number")
	assert.False(t, ok)
	_, ok = ExcelSerialDate("0")
	assert.False(t, ok)
}

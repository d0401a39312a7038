package invoice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taxfiler/pkg/models"
)

func TestParseAmount(t *testing.T) {
	tests := map[string]float64{
		"1,234.50":  1234.5,
		" 4000 ":    4000,
		"1,000,000": 1000000,
		"0.1":       0.1,
		"-12.75":    -12.75,
	}
	for in, want := range tests {
		got, err := ParseAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseAmount("twelve")
	assert.Error(t, err)
	_, err = ParseAmount("")
	assert.Error(t, err)
}

func TestBuildBodyCoercesAmountsAndDropsSibling(t *testing.T) {
	skeleton := map[string]any{"DOC_TYPE": json.Number("1"), "AMOUNT_KHR": json.Number("0")}
	inv := models.Invoice{"INV_NO": " A-1 ", "INV_DATE": "2024-01-05", "TOTAL_AMT": "1,234.50"}
	fields := []string{"AMOUNT_KHR", "INV_DATE", "INV_NO", "TOTAL_AMT"}

	body, err := BuildBody(skeleton, inv, fields, nil)
	require.NoError(t, err)

	assert.Equal(t, 1234.5, body["TOTAL_AMT"])
	assert.Equal(t, "A-1", body["INV_NO"])
	assert.NotContains(t, body, "AMOUNT_KHR")
	assert.NotContains(t, body, "TAXPAYER_TYPE")

	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"DOC_TYPE":1,"INV_NO":"A-1","INV_DATE":"2024-01-05","TOTAL_AMT":1234.5}`, string(encoded))

	// skeleton untouched
	assert.Contains(t, skeleton, "AMOUNT_KHR")
	assert.NotContains(t, skeleton, "TOTAL_AMT")
}

func TestBuildBodyRielAmountDropsTotal(t *testing.T) {
	inv := models.Invoice{"INV_NO": "A-1", "AMOUNT_KHR": "40,000", "TOTAL_AMT": ""}
	fields := []string{"AMOUNT_KHR", "INV_NO", "TOTAL_AMT"}

	body, err := BuildBody(map[string]any{"TOTAL_AMT": 5}, inv, fields, nil)
	require.NoError(t, err)

	assert.Equal(t, float64(40000), body["AMOUNT_KHR"])
	assert.NotContains(t, body, "TOTAL_AMT")
}

func TestBuildBodySubstitutesCompany(t *testing.T) {
	inv := models.Invoice{"INV_NO": "A-1", "ITEM_ID": "K-001", "TOTAL_AMT": "10"}
	company := &models.CompanyInfo{ID: "9001", TaxpayerType: models.TaxpayerRegistered}

	body, err := BuildBody(nil, inv, BatchFields([]models.Invoice{inv}), company)
	require.NoError(t, err)

	assert.Equal(t, "9001", body["ITEM_ID"])
	assert.Equal(t, 1, body["TAXPAYER_TYPE"])
	assert.Equal(t, "K-001", inv["ITEM_ID"], "invoice must not be mutated")
}

func TestBuildBodySkipsFieldsAbsentFromRow(t *testing.T) {
	inv := models.Invoice{"INV_NO": "A-2", "TOTAL_AMT": "10"}
	fields := []string{"INV_NO", "ITEM_ID", "REMARK", "TOTAL_AMT"}

	body, err := BuildBody(map[string]any{}, inv, fields, nil)
	require.NoError(t, err)

	assert.NotContains(t, body, "ITEM_ID")
	assert.NotContains(t, body, "REMARK")
}

func TestBatchFields(t *testing.T) {
	invoices := []models.Invoice{
		{"INV_NO": "1", "TOTAL_AMT": "1"},
		{"INV_NO": "2", "AMOUNT_KHR": "1", "ITEM_ID": "K001"},
	}

	assert.Equal(t, []string{"INV_NO", "TOTAL_AMT", "AMOUNT_KHR", "ITEM_ID"}, BatchFields(invoices))
	assert.Empty(t, BatchFields(nil))
}

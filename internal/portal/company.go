package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"taxfiler/pkg/models"
)

// Lookup endpoints, relative to the portal base URL
const (
	CompanyInfoPath = "/company/info"
	NonTaxpayerPath = "/api/nontaxpayer"
)

type lookupResponse struct {
	Data *struct {
		ID lookupID `json:"ID"`
	} `json:"DATA"`
}

// lookupID accepts the ID as either a JSON string or a number
type lookupID string

func (id *lookupID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = lookupID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = lookupID(n.String())
	return nil
}

// ClassifyTIN routes a counterparty: hyphenated TINs belong to registered taxpayers
func ClassifyTIN(tin string) models.TaxpayerType {
	if strings.Contains(tin, "-") {
		return models.TaxpayerRegistered
	}
	return models.TaxpayerNonRegistered
}

// ResolveCompany looks up the portal's internal ID for a counterparty TIN.
// Registered taxpayers go to the company-info endpoint with {TIN, TYPE};
// everyone else to the non-taxpayer endpoint with {TIN}.
func (c *Client) ResolveCompany(ctx context.Context, tin string, headers map[string]string) (*models.CompanyInfo, error) {
	const op = "ResolveCompany"

	taxpayerType := ClassifyTIN(tin)

	var (
		url     string
		payload map[string]any
	)
	if taxpayerType == models.TaxpayerRegistered {
		url = c.baseURL + CompanyInfoPath
		payload = map[string]any{"TIN": tin, "TYPE": int(taxpayerType)}
	} else {
		url = c.baseURL + NonTaxpayerPath
		payload = map[string]any{"TIN": tin}
	}

	body, err := c.postJSON(ctx, op, url, headers, payload)
	if err != nil {
		return nil, err
	}

	var resp lookupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewPortalError(op, ErrMalformedResponse, err.Error())
	}
	if resp.Data == nil || resp.Data.ID == "" {
		return nil, NewPortalError(op, ErrMalformedResponse, "DATA.ID missing for TIN "+tin)
	}

	c.log.Info().
		Str("tin", tin).
		Str("company_id", string(resp.Data.ID)).
		Int("taxpayer_type", int(taxpayerType)).
		Msg("Company info fetched")

	return &models.CompanyInfo{
		ID:           string(resp.Data.ID),
		TaxpayerType: taxpayerType,
	}, nil
}

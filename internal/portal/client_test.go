package portal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taxfiler/pkg/models"
)

type recordedCall struct {
	Path    string
	Payload map[string]any
	Header  http.Header
}

func newPortal(t *testing.T, handler func(w http.ResponseWriter, call recordedCall)) (*Client, *[]recordedCall) {
	t.Helper()
	calls := &[]recordedCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		call := recordedCall{Path: r.URL.Path, Payload: payload, Header: r.Header.Clone()}
		*calls = append(*calls, call)
		handler(w, call)
	}))
	t.Cleanup(srv.Close)

	return NewClient(Config{BaseURL: srv.URL + "/gdtefilingweb/", Timeout: 5 * time.Second}), calls
}

func TestClassifyTIN(t *testing.T) {
	assert.Equal(t, models.TaxpayerRegistered, ClassifyTIN("K-001"))
	assert.Equal(t, models.TaxpayerNonRegistered, ClassifyTIN("K001"))
}

func TestResolveCompanyRegisteredTaxpayer(t *testing.T) {
	client, calls := newPortal(t, func(w http.ResponseWriter, _ recordedCall) {
		_, _ = w.Write([]byte(`{"DATA":{"ID":"C-42"}}`))
	})

	info, err := client.ResolveCompany(context.Background(), "K-001", SessionHeaders("tok", "SESSION=1", ""))
	require.NoError(t, err)

	assert.Equal(t, &models.CompanyInfo{ID: "C-42", TaxpayerType: models.TaxpayerRegistered}, info)
	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/gdtefilingweb/company/info", call.Path)
	assert.Equal(t, map[string]any{"TIN": "K-001", "TYPE": float64(1)}, call.Payload)
	assert.Equal(t, "tok", call.Header.Get("X-Xsrf-Token"))
	assert.Equal(t, "SESSION=1", call.Header.Get("Cookie"))
}

func TestResolveCompanyNonTaxpayer(t *testing.T) {
	client, calls := newPortal(t, func(w http.ResponseWriter, _ recordedCall) {
		_, _ = w.Write([]byte(`{"DATA":{"ID":1234}}`))
	})

	info, err := client.ResolveCompany(context.Background(), "K001", nil)
	require.NoError(t, err)

	assert.Equal(t, "1234", info.ID)
	assert.Equal(t, models.TaxpayerNonRegistered, info.TaxpayerType)
	require.Len(t, *calls, 1)
	assert.Equal(t, "/gdtefilingweb/api/nontaxpayer", (*calls)[0].Path)
	assert.Equal(t, map[string]any{"TIN": "K001"}, (*calls)[0].Payload)
}

func TestResolveCompanyMalformedResponse(t *testing.T) {
	for _, body := range []string{`{}`, `{"DATA":null}`, `{"DATA":{"ID":""}}`, `not json`} {
		t.Run(body, func(t *testing.T) {
			client, _ := newPortal(t, func(w http.ResponseWriter, _ recordedCall) {
				_, _ = w.Write([]byte(body))
			})

			info, err := client.ResolveCompany(context.Background(), "K001", nil)
			assert.Nil(t, info)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestResolveCompanyHTTPError(t *testing.T) {
	client, _ := newPortal(t, func(w http.ResponseWriter, _ recordedCall) {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
	})

	_, err := client.ResolveCompany(context.Background(), "K-001", nil)

	statusErr, ok := IsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)

	var portalErr *PortalError
	require.True(t, errors.As(err, &portalErr))
	assert.Equal(t, "ResolveCompany", portalErr.Op)
}

func TestSubmitInvoice(t *testing.T) {
	client, calls := newPortal(t, func(w http.ResponseWriter, _ recordedCall) {
		_, _ = w.Write([]byte("  {\"STATUS\":\"OK\",\"ID\":7}\n"))
	})

	headers := SessionHeaders("tok", "SESSION=1", "https://portal.example/entry")
	body := map[string]any{"INV_NO": "A-1", "TOTAL_AMT": 1234.5}

	msg, err := client.SubmitInvoice(context.Background(), client.baseURL+"/api/purchase-sale/save", headers, body)
	require.NoError(t, err)

	assert.Equal(t, `{"STATUS":"OK","ID":7}`, msg)
	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, body, call.Payload)
	assert.Equal(t, "application/json;charset=UTF-8", call.Header.Get("Content-Type"))
	assert.Equal(t, "XMLHttpRequest", call.Header.Get("X-Requested-With"))
	assert.Equal(t, "https://portal.example/entry", call.Header.Get("Referer"))
}

func TestSubmitInvoiceServerError(t *testing.T) {
	client, _ := newPortal(t, func(w http.ResponseWriter, _ recordedCall) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.SubmitInvoice(context.Background(), client.baseURL+"/save", nil, map[string]any{})

	statusErr, ok := IsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestSubmitInvoiceTransportError(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := client.SubmitInvoice(context.Background(), "http://127.0.0.1:1/save", nil, map[string]any{})
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestSubmitInvoiceCanceledContext(t *testing.T) {
	client, calls := newPortal(t, func(w http.ResponseWriter, _ recordedCall) {
		_, _ = w.Write([]byte("{}"))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SubmitInvoice(ctx, client.baseURL+"/save", nil, map[string]any{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *calls)
}

func TestSessionHeadersOmitsEmptyReferer(t *testing.T) {
	headers := SessionHeaders("Not found", "Not found", "")
	assert.NotContains(t, headers, "referer")
	assert.Equal(t, "Not found", headers["x-xsrf-token"])
}

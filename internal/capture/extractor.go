// Package capture turns a browser "Copy as fetch" export into a reusable
// request template for the e-filing portal.
//
// A capture looks like the text DevTools produces for a single request:
//
//	fetch("https://efiling.tax.gov.kh/gdtefilingweb/api/purchase-sale/save", {
//	  "headers": {
//	    "accept": "application/json, text/plain, */*",
//	    "x-xsrf-token": "...",
//	    "cookie": "..."
//	  },
//	  "referrer": "https://efiling.tax.gov.kh/gdtefilingweb/entry/purchase-sale/...",
//	  "body": "{\"INV_NO\":\"A-1\",\"DOC_TYPE\":1}",
//	  "method": "POST"
//	});
//
// The URL, the headers block and the body literal are located independently so
// a failure names the section that is missing. The auth token and cookie fall
// back to NotFound rather than failing: the portal then rejects the request
// with an auth error that is easier to act on than a parse error.
package capture

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"taxfiler/internal/logger"
)

// NotFound is the placeholder used for a missing auth token or cookie.
const NotFound = "Not found"

const (
	headerXSRFToken = "x-xsrf-token"
	headerCookie    = "cookie"
)

var (
	urlPattern      = regexp.MustCompile(`fetch\(\s*"([^"]+)"`)
	headersPattern  = regexp.MustCompile(`"headers":\s*(\{[\s\S]*?\}),`)
	bodyPattern     = regexp.MustCompile(`"body":\s*"(\{(?:[^"\\]|\\.)*\})"`)
	methodPattern   = regexp.MustCompile(`"method":\s*"([A-Za-z]+)"`)
	referrerPattern = regexp.MustCompile(`"referrer":\s*"([^"]*)"`)

	bodyUnescaper = strings.NewReplacer(`\"`, `"`, `\n`, "\n", `\t`, "\t")
)

// RequestTemplate is the part of a captured request shared by every invoice
// in a batch. It is read-only once extracted.
type RequestTemplate struct {
	TargetURL     string
	Method        string
	Referrer      string
	Headers       map[string]string // Captured headers, keys lower-cased
	AuthToken     string
	SessionCookie string
	BodySkeleton  map[string]any
}

// NewBody returns a fresh copy of the body skeleton that the caller may modify.
func (t *RequestTemplate) NewBody() map[string]any {
	body := make(map[string]any, len(t.BodySkeleton))
	for k, v := range t.BodySkeleton {
		body[k] = v
	}
	return body
}

// Extract parses captured request text into a RequestTemplate. Every key in
// fieldsToStrip is removed from the body so the skeleton keeps only the fields
// common to all invoices.
func Extract(text string, fieldsToStrip []string) (*RequestTemplate, error) {
	log := logger.WithComponent("capture")

	targetURL, err := extractURL(text)
	if err != nil {
		return nil, err
	}

	headers, err := extractHeaders(text)
	if err != nil {
		return nil, err
	}

	skeleton, err := extractBody(text)
	if err != nil {
		return nil, err
	}
	for _, field := range fieldsToStrip {
		delete(skeleton, field)
	}

	tpl := &RequestTemplate{
		TargetURL:     targetURL,
		Method:        extractMethod(text),
		Referrer:      firstSubmatch(referrerPattern, text),
		Headers:       headers,
		AuthToken:     valueOr(headers[headerXSRFToken], NotFound),
		SessionCookie: valueOr(headers[headerCookie], NotFound),
		BodySkeleton:  skeleton,
	}

	log.Debug().
		Str("url", tpl.TargetURL).
		Str("method", tpl.Method).
		Int("headers", len(headers)).
		Int("skeleton_fields", len(skeleton)).
		Bool("token_found", tpl.AuthToken != NotFound).
		Bool("cookie_found", tpl.SessionCookie != NotFound).
		Msg("Extracted request template")

	return tpl, nil
}

func extractURL(text string) (string, error) {
	url := firstSubmatch(urlPattern, text)
	if url == "" {
		return "", missing(SectionURL)
	}
	return url, nil
}

func extractHeaders(text string) (map[string]string, error) {
	block := firstSubmatch(headersPattern, text)
	if block == "" {
		return nil, missing(SectionHeaders)
	}

	var raw map[string]string
	if err := json.Unmarshal([]byte(strings.ReplaceAll(block, "\n", "")), &raw); err != nil {
		return nil, malformed(SectionHeaders, err)
	}

	headers := make(map[string]string, len(raw))
	for k, v := range raw {
		headers[strings.ToLower(k)] = v
	}
	return headers, nil
}

// extractBody decodes the escaped JSON body literal. A body that is present but
// not valid JSON yields an empty skeleton; the invoice fields alone are then sent.
func extractBody(text string) (map[string]any, error) {
	literal := firstSubmatch(bodyPattern, text)
	if literal == "" {
		return nil, missing(SectionBody)
	}

	skeleton := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader([]byte(unescapeBody(literal))))
	dec.UseNumber()
	if err := dec.Decode(&skeleton); err != nil {
		log := logger.WithComponent("capture")
		log.Warn().Err(err).Msg("Captured body is not valid JSON, using empty skeleton")
		return map[string]any{}, nil
	}
	return skeleton, nil
}

// unescapeBody reads the literal as a JSON string first, which covers the
// escapes DevTools emits, and falls back to the common three.
func unescapeBody(literal string) string {
	var s string
	if err := json.Unmarshal([]byte(`"`+literal+`"`), &s); err == nil {
		return s
	}
	return bodyUnescaper.Replace(literal)
}

func extractMethod(text string) string {
	if m := firstSubmatch(methodPattern, text); m != "" {
		return strings.ToUpper(m)
	}
	return "POST"
}

func firstSubmatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

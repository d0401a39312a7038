package portal

import (
	"bytes"
	"context"
)

// SessionHeaders builds the headers sent with every portal call: the fixed
// navigation headers a browser XHR carries plus the captured session.
func SessionHeaders(authToken, cookie, referer string) map[string]string {
	headers := map[string]string{
		"accept":           "application/json, text/plain, */*",
		"accept-language":  "en-US,en;q=0.9",
		"content-type":     "application/json;charset=UTF-8",
		"sec-fetch-dest":   "empty",
		"sec-fetch-mode":   "cors",
		"sec-fetch-site":   "same-origin",
		"x-requested-with": "XMLHttpRequest",
		"x-xsrf-token":     authToken,
		"cookie":           cookie,
	}
	if referer != "" {
		headers["referer"] = referer
	}
	return headers
}

// SubmitInvoice posts one assembled invoice body to the captured target URL
// and returns the portal's raw response payload.
func (c *Client) SubmitInvoice(ctx context.Context, url string, headers map[string]string, body map[string]any) (string, error) {
	const op = "SubmitInvoice"

	resp, err := c.postJSON(ctx, op, url, headers, body)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(resp)), nil
}

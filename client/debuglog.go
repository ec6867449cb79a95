package client

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxLoggedBody = 8 << 10

var redactedHeaders = map[string]bool{
	"Authorization":       true,
	"Cookie":              true,
	"Proxy-Authorization": true,
	"X-Api-Key":           true,
}

func (c *Client) debugEnabled(ctx context.Context) bool {
	return c.logger.Enabled(ctx, slog.LevelDebug)
}

// logRequest writes a debug summary of an outgoing request. body is
// what will be sent, or nil when it is streamed.
func (c *Client) logRequest(req *http.Request, body []byte) {
	if !c.debugEnabled(req.Context()) {
		return
	}

	attrs := []any{
		"method", req.Method,
		"url", req.URL.Redacted(),
	}
	if q := queryPairs(req.URL.RawQuery); len(q) > 0 {
		attrs = append(attrs, "query", q)
	}
	attrs = append(attrs, "headers", headerSummary(req.Header))
	if body != nil {
		attrs = append(attrs, "body", bodySummary(req.Header.Get("Content-Type"), body))
	}

	c.logger.DebugContext(req.Context(), "http request", attrs...)
}

func (c *Client) logResponse(req *http.Request, status int, body []byte) {
	if !c.debugEnabled(req.Context()) {
		return
	}

	c.logger.DebugContext(req.Context(), "http response",
		"method", req.Method,
		"url", req.URL.Redacted(),
		"status", status,
		"body", bodySummary("", body),
	)
}

// queryPairs keeps query parameters in wire order.
func queryPairs(raw string) []string {
	if raw == "" {
		return nil
	}

	return strings.Split(raw, "&")
}

func headerSummary(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if redactedHeaders[http.CanonicalHeaderKey(k)] {
			out[k] = "REDACTED"
			continue
		}
		out[k] = strings.Join(v, ", ")
	}

	return out
}

// bodySummary pretty-prints JSON, passes short text through and
// reduces anything else to its size.
func bodySummary(contentType string, body []byte) string {
	if len(body) == 0 {
		return ""
	}

	if contentType != "" {
		mt, _, _ := mime.ParseMediaType(contentType)
		if mt != "" && mt != "application/json" && !strings.HasPrefix(mt, "text/") {
			return mt + " (" + strconv.Itoa(len(body)) + " bytes)"
		}
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, body, "", "  ") == nil {
		return truncate(pretty.String())
	}

	if utf8.Valid(body) {
		return truncate(string(body))
	}

	return "binary (" + strconv.Itoa(len(body)) + " bytes)"
}

func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}

	cut := maxLoggedBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "…"
}

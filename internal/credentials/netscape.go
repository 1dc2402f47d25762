package credentials

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const httpOnlyPrefix = "#HttpOnly_"

// ParseNetscape reads a cookies.txt file: seven tab separated columns of
// domain, include-subdomains flag, path, secure flag, expiry, name and value.
func ParseNetscape(r io.Reader) ([]*http.Cookie, error) {
	var cookies []*http.Cookie

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")

		httpOnly := false
		if strings.HasPrefix(text, httpOnlyPrefix) {
			httpOnly = true
			text = strings.TrimPrefix(text, httpOnlyPrefix)
		}

		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) != 7 {
			return nil, fmt.Errorf("line %d: expected 7 fields, got %d", line, len(fields))
		}

		cookie := &http.Cookie{
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			Value:    fields[6],
			HttpOnly: httpOnly,
		}

		if exp, err := strconv.ParseInt(fields[4], 10, 64); err == nil && exp > 0 {
			cookie.Expires = time.Unix(exp, 0)
		}

		cookies = append(cookies, cookie)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cookies, nil
}

// HeaderValue renders cookies the way a browser sends them in a Cookie header,
// skipping the ones already expired at now.
func HeaderValue(cookies []*http.Cookie, now time.Time) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

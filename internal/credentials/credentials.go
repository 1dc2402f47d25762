package credentials

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/afero"
)

// Credentials are the overrides a caller may send with a request.
type Credentials struct {
	Cookie    string
	UserAgent string
	Token     string
}

// IsZero reports whether the caller supplied nothing.
func (c Credentials) IsZero() bool {
	return c.Cookie == "" && c.UserAgent == "" && c.Token == ""
}

// Resolved is what an attempt actually uses. Cookie and CookieFile are
// mutually exclusive.
type Resolved struct {
	Cookie      string
	CookieFile  string
	FileCookies []*http.Cookie
	UserAgent   string
	Token       string
}

// Store holds the local defaults. The cookie file is looked up on every
// Resolve so it can be dropped in or rotated without a restart.
type Store struct {
	fs         afero.Fs
	cookieFile string
	token      string
	userAgent  string
}

func NewStore(fs afero.Fs, cookieFile, token, userAgent string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{
		fs:         fs,
		cookieFile: strings.TrimSpace(cookieFile),
		token:      strings.TrimSpace(token),
		userAgent:  strings.TrimSpace(userAgent),
	}
}

// Resolve merges caller overrides with the local defaults.
func (s *Store) Resolve(c Credentials, useCookies, useToken bool) (Resolved, error) {
	r := Resolved{
		Cookie:    strings.TrimSpace(c.Cookie),
		UserAgent: strings.TrimSpace(c.UserAgent),
		Token:     strings.TrimSpace(c.Token),
	}

	if r.UserAgent == "" {
		r.UserAgent = s.userAgent
	}

	if r.Token == "" && useToken {
		r.Token = s.token
	}

	if r.Cookie == "" && useCookies && s.HasCookieFile() {
		cookies, err := s.loadCookieFile()
		if err != nil {
			return Resolved{}, err
		}
		r.CookieFile = s.cookieFile
		r.FileCookies = cookies
	}

	return r, nil
}

// HasCookieFile reports whether the configured cookie file exists right now.
func (s *Store) HasCookieFile() bool {
	if s.cookieFile == "" {
		return false
	}
	info, err := s.fs.Stat(s.cookieFile)
	return err == nil && !info.IsDir()
}

func (s *Store) loadCookieFile() ([]*http.Cookie, error) {
	f, err := s.fs.Open(s.cookieFile)
	if err != nil {
		return nil, fmt.Errorf("open cookie file: %w", err)
	}
	defer f.Close()

	cookies, err := ParseNetscape(f)
	if err != nil {
		return nil, fmt.Errorf("parse cookie file %s: %w", s.cookieFile, err)
	}
	return cookies, nil
}

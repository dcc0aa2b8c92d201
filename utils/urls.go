package utils

import "net/url"

// IsValidURL reports whether rawURL is an absolute http(s) URL.
func IsValidURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if u.Scheme == "" || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// NormalizeURL strips the fragment and defaults an empty path to "/", so
// equivalent entry URLs produce identical mirrors.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

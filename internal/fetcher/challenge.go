package fetcher

import (
	"bytes"
	"strings"
)

// Challenge kinds reported by DetectChallenge.
const (
	ChallengeReCaptcha  = "recaptcha"
	ChallengeHCaptcha   = "hcaptcha"
	ChallengeTurnstile  = "turnstile"
	ChallengeCloudflare = "cloudflare"
)

// DetectChallenge reports which bot challenge a page carries, or "".
// Captcha widgets only count when they have a site key.
func DetectChallenge(body []byte) string {
	lower := bytes.ToLower(body)

	if bytes.Contains(lower, []byte("<title>just a moment")) ||
		bytes.Contains(lower, []byte("cf-chl-")) ||
		bytes.Contains(lower, []byte("/cdn-cgi/challenge-platform/")) {
		return ChallengeCloudflare
	}

	if !bytes.Contains(lower, []byte(`data-sitekey="`)) {
		return ""
	}
	switch {
	case bytes.Contains(lower, []byte("cf-turnstile")):
		return ChallengeTurnstile
	case bytes.Contains(lower, []byte("h-captcha")), bytes.Contains(lower, []byte("hcaptcha.com")):
		return ChallengeHCaptcha
	case bytes.Contains(lower, []byte("g-recaptcha")), bytes.Contains(lower, []byte("recaptcha/api.js")):
		return ChallengeReCaptcha
	}
	return ""
}

// SiteKey returns the data-sitekey attribute of the first captcha widget.
func SiteKey(body []byte) string {
	s := string(body)
	const attr = `data-sitekey="`
	idx := strings.Index(s, attr)
	if idx < 0 {
		return ""
	}
	s = s[idx+len(attr):]
	end := strings.IndexByte(s, '"')
	if end < 0 {
		return ""
	}
	return s[:end]
}

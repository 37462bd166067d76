package validation

import (
	"net"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidURL is wrapped by every rejection from FeedURLValidator.
var ErrInvalidURL = errors.New("invalid feed URL")

// FeedURLValidator checks feed and site URLs before anything is fetched.
type FeedURLValidator struct {
	// AllowLocalhost permits localhost and loopback hosts.
	AllowLocalhost bool
	// AllowPrivateIPs permits literal private, link-local and unique local addresses.
	AllowPrivateIPs bool
	MaxLength       int
}

// NewFeedURLValidator blocks local and private hosts.
func NewFeedURLValidator() *FeedURLValidator {
	return &FeedURLValidator{MaxLength: 2048}
}

// NewPermissiveFeedURLValidator allows local development servers.
func NewPermissiveFeedURLValidator() *FeedURLValidator {
	return &FeedURLValidator{AllowLocalhost: true, AllowPrivateIPs: true, MaxLength: 2048}
}

func reject(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidURL, format, args...)
}

// ValidateAndNormalize trims input, defaults the scheme to https and
// returns the canonical form of the URL.
func (v *FeedURLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", reject("URL cannot be empty")
	}
	if v.MaxLength > 0 && len(input) > v.MaxLength {
		return "", reject("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'`") {
		return "", reject("URL contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", reject("malformed URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", reject("URL must use http or https protocol")
	}
	if u.Hostname() == "" {
		return "", reject("URL must have a valid hostname")
	}

	if err := v.checkHost(u.Hostname()); err != nil {
		return "", err
	}
	if strings.Contains(u.Path, "..") {
		return "", reject("directory traversal patterns not allowed in URL path")
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String(), nil
}

func (v *FeedURLValidator) checkHost(hostname string) error {
	hostname = strings.ToLower(hostname)

	if !v.AllowLocalhost && isLocalhost(hostname) {
		return reject("localhost URLs are not permitted")
	}

	ip := net.ParseIP(hostname)
	if ip == nil {
		return nil
	}
	if ip.IsUnspecified() || ip.Equal(net.IPv4bcast) {
		return reject("address %s is not routable", hostname)
	}
	if !v.AllowPrivateIPs && (ip.IsPrivate() || ip.IsLinkLocalUnicast()) {
		return reject("private IP addresses are not permitted")
	}
	if !v.AllowLocalhost && ip.IsLoopback() {
		return reject("localhost URLs are not permitted")
	}
	return nil
}

func isLocalhost(hostname string) bool {
	return hostname == "localhost" || strings.HasSuffix(hostname, ".localhost")
}

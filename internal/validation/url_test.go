package validation

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeedURLValidator(t *testing.T) {
	v := NewFeedURLValidator()
	if v.AllowLocalhost || v.AllowPrivateIPs {
		t.Error("expected local and private hosts to be blocked by default")
	}
	if v.MaxLength != 2048 {
		t.Errorf("expected MaxLength 2048, got %d", v.MaxLength)
	}

	p := NewPermissiveFeedURLValidator()
	if !p.AllowLocalhost || !p.AllowPrivateIPs {
		t.Error("expected permissive validator to allow local and private hosts")
	}
}

func TestValidateAndNormalize(t *testing.T) {
	v := NewFeedURLValidator()

	tests := []struct {
		name     string
		input    string
		expected string
		errorMsg string
	}{
		{name: "empty URL", input: "", errorMsg: "URL cannot be empty"},
		{name: "whitespace-only URL", input: "   ", errorMsg: "URL cannot be empty"},
		{name: "adds https", input: "blog.example.org/feed/", expected: "https://blog.example.org/feed/"},
		{name: "keeps http", input: "http://blog.example.org/feed", expected: "http://blog.example.org/feed"},
		{name: "lowercases host", input: "https://Blog.Example.ORG/Feed", expected: "https://blog.example.org/Feed"},
		{name: "drops fragment", input: "https://blog.example.org/feed#top", expected: "https://blog.example.org/feed"},
		{name: "keeps query", input: "https://blog.example.org/?feed=rss2", expected: "https://blog.example.org/?feed=rss2"},
		{name: "ftp scheme", input: "ftp://blog.example.org/feed", errorMsg: "http or https"},
		{name: "html characters", input: "https://blog.example.org/<script>", errorMsg: "invalid characters"},
		{name: "localhost", input: "http://localhost:8080/feed", errorMsg: "localhost"},
		{name: "localhost subdomain", input: "http://wp.localhost/feed", errorMsg: "localhost"},
		{name: "loopback", input: "http://127.0.0.1/feed", errorMsg: "localhost"},
		{name: "private ip", input: "http://192.168.1.10/feed", errorMsg: "private IP"},
		{name: "link local", input: "http://169.254.1.1/feed", errorMsg: "private IP"},
		{name: "unspecified", input: "http://0.0.0.0/feed", errorMsg: "not routable"},
		{name: "traversal", input: "https://blog.example.org/a/../b", errorMsg: "traversal"},
		{name: "public ip", input: "http://8.8.8.8/feed", expected: "http://8.8.8.8/feed"},
		{name: "too long", input: "https://blog.example.org/" + strings.Repeat("a", 2048), errorMsg: "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ValidateAndNormalize(tt.input)
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.True(t, errors.Is(err, ErrInvalidURL))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPermissiveValidatorAllowsLocalServers(t *testing.T) {
	v := NewPermissiveFeedURLValidator()

	for _, in := range []string{"http://localhost:8080/feed", "http://127.0.0.1:1234/", "http://10.0.0.5/feed"} {
		_, err := v.ValidateAndNormalize(in)
		assert.NoError(t, err, in)
	}

	_, err := v.ValidateAndNormalize("http://0.0.0.0/")
	assert.Error(t, err)
}

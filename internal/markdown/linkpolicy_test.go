package markdown

import (
	"reflect"
	"testing"
)

func TestAllowedDomainsToLinkPrefixes(t *testing.T) {
	cases := []struct {
		name   string
		policy LinkPolicy
		want   []string
	}{
		{
			name:   "empty list permits nothing",
			policy: LinkPolicy{},
			want:   nil,
		},
		{
			name:   "wildcard short-circuits",
			policy: LinkPolicy{AllowedHosts: []string{"example.com", "*"}},
			want:   []string{"*"},
		},
		{
			name:   "bare domain https only",
			policy: LinkPolicy{AllowedHosts: []string{"example.com"}},
			want:   []string{"https://example.com"},
		},
		{
			name:   "www variants",
			policy: LinkPolicy{AllowedHosts: []string{"example.com"}, IncludeWww: true},
			want:   []string{"https://example.com", "https://www.example.com"},
		},
		{
			name:   "http and www variants",
			policy: LinkPolicy{AllowedHosts: []string{"example.com"}, IncludeWww: true, AllowHTTP: true},
			want: []string{
				"https://example.com",
				"http://example.com",
				"https://www.example.com",
				"http://www.example.com",
			},
		},
		{
			name:   "www host gets no double www",
			policy: LinkPolicy{AllowedHosts: []string{"www.example.com"}, IncludeWww: true},
			want:   []string{"https://www.example.com"},
		},
		{
			name:   "full URL passes through",
			policy: LinkPolicy{AllowedHosts: []string{"http://internal:8080"}, IncludeWww: true, AllowHTTP: true},
			want:   []string{"http://internal:8080"},
		},
		{
			name:   "trailing dot trimmed",
			policy: LinkPolicy{AllowedHosts: []string{"example.com."}},
			want:   []string{"https://example.com"},
		},
		{
			name:   "duplicates collapse in first-seen order",
			policy: LinkPolicy{AllowedHosts: []string{"a.com", "a.com", "b.com"}},
			want:   []string{"https://a.com", "https://b.com"},
		},
		{
			name:   "blank entries skipped",
			policy: LinkPolicy{AllowedHosts: []string{" ", "a.com"}},
			want:   []string{"https://a.com"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AllowedDomainsToLinkPrefixes(tc.policy)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("AllowedDomainsToLinkPrefixes() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLinkAllowed(t *testing.T) {
	prefixes := []string{"https://example.com", "https://www.example.com"}

	cases := []struct {
		url  string
		want bool
	}{
		{"https://example.com/page", true},
		{"https://www.example.com/", true},
		{"https://evil.com/https://example.com", false},
		{"http://example.com/page", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := LinkAllowed(prefixes, tc.url); got != tc.want {
			t.Errorf("LinkAllowed(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}

	if !LinkAllowed([]string{AllowAll}, "https://anything.example") {
		t.Error("wildcard prefix should allow every url")
	}
	if LinkAllowed(nil, "https://example.com") {
		t.Error("empty prefix list should block every url")
	}
}

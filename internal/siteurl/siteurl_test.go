package siteurl

import "testing"

func TestValid(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"example.com", true},
		{"http://example.com", true},
		{"https://example.com", true},
		{"https://sub.example.co.uk/path?q=1", true},
		{"acme-store.io", true},
		{"example.com:8080", true},
		{"localhost", false},
		{"not a url", false},
		{"", false},
		{"http://", false},
		{"example.", false},
		{".com", false},
		{"ftp://example.com", false},
	}
	for _, tc := range cases {
		if got := Valid(tc.raw); got != tc.want {
			t.Errorf("Valid(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"example.com", "https://example.com"},
		{"  example.com  ", "https://example.com"},
		{"http://example.com", "http://example.com"},
		{"https://example.com/blog", "https://example.com/blog"},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.raw)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}

	if _, err := Normalize("localhost"); err == nil {
		t.Error("Normalize(localhost) expected error")
	}
}

func TestHost(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"https://example.com/blog", "example.com"},
		{"example.com:8080", "example.com"},
		{"http://sub.example.com", "sub.example.com"},
	}
	for _, tc := range cases {
		if got := Host(tc.raw); got != tc.want {
			t.Errorf("Host(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestBusinessName(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"https://acme.com", "Acme"},
		{"www.acme.com", "Acme"},
		{"acme-store.io", "Acme Store"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := BusinessName(tc.raw); got != tc.want {
			t.Errorf("BusinessName(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

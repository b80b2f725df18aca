package urlnorm

import "testing"

func TestNormalize_Canonicalization(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase scheme and host", "HTTP://Example.com/x", "http://example.com/x"},
		{"strip default http port", "http://example.com:80/x", "http://example.com/x"},
		{"strip default https port", "https://example.com:443/x", "https://example.com/x"},
		{"keep non-default port", "http://example.com:8080/x", "http://example.com:8080/x"},
		{"trailing slash removed", "https://example.com/x/", "https://example.com/x"},
		{"root slash kept", "https://example.com/", "https://example.com/"},
		{"fragment dropped", "https://example.com/x#section-2", "https://example.com/x"},
		{"bare query dropped", "https://a.com/x?", "https://a.com/x"},
		{"query sorted by key", "https://a.com/x?b=2&a=1", "https://a.com/x?a=1&b=2"},
		{"query values sorted within key", "https://a.com/x?a=2&a=1", "https://a.com/x?a=1&a=2"},
		{"decodable escape folded", "https://a.com/%41bc", "https://a.com/Abc"},
		{"reserved escape kept", "https://a.com/a%2Fb", "https://a.com/a%2Fb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_MalformedReturnedUnchanged(t *testing.T) {
	inputs := []string{
		"",
		"not a url",
		"://missing-scheme",
		"relative/path/only",
		"http://",
	}

	for _, in := range inputs {
		if got := Normalize(in); got != in {
			t.Errorf("Normalize(%q) = %q, want input unchanged", in, got)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"HTTP://Example.com:80/x/",
		"https://a.com/x?b=2&a=1#frag",
		"https://a.com/%41bc",
		"not a url",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal("HTTP://Example.com:80/x/", "http://example.com/x") {
		t.Error("Expected cosmetically different URLs to compare equal")
	}
	if !Equal("https://a.com/x/", "https://a.com/x?") {
		t.Error("Expected trailing slash and bare query to compare equal")
	}
	if Equal("https://a.com/x", "https://a.com/y") {
		t.Error("Expected different paths to compare unequal")
	}
}

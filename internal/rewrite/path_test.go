package rewrite

import "testing"

func TestOutputPath(t *testing.T) {
	t.Parallel()

	const base = "https://docs.example.com/guide"

	tests := []struct {
		name    string
		pageURL string
		want    string
	}{
		{
			name:    "base URL itself maps to index.md",
			pageURL: "https://docs.example.com/guide",
			want:    "index.md",
		},
		{
			name:    "base URL with trailing slash maps to index.md",
			pageURL: "https://docs.example.com/guide/",
			want:    "index.md",
		},
		{
			name:    "extensionless path becomes a directory with index.md",
			pageURL: "https://docs.example.com/guide/install",
			want:    "install/index.md",
		},
		{
			name:    "nested path preserves hierarchy",
			pageURL: "https://docs.example.com/guide/api/auth",
			want:    "api/auth/index.md",
		},
		{
			name:    "final segment with a dot gets a markdown suffix",
			pageURL: "https://docs.example.com/guide/changelog.html",
			want:    "changelog.html.md",
		},
		{
			name:    "existing markdown suffix is kept as is",
			pageURL: "https://docs.example.com/guide/readme.md",
			want:    "readme.md",
		},
		{
			name:    "fragment is stripped before mapping",
			pageURL: "https://docs.example.com/guide/install#setup",
			want:    "install/index.md",
		},
		{
			name:    "query parameters are made filesystem safe",
			pageURL: "https://docs.example.com/guide/search?q=auth",
			want:    "search_q=auth/index.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := OutputPath(tt.pageURL, base); got != tt.want {
				t.Errorf("OutputPath(%q) = %q, want %q", tt.pageURL, got, tt.want)
			}
		})
	}
}

func TestOutputPath_Deterministic(t *testing.T) {
	t.Parallel()

	const base = "https://docs.example.com"
	const pageURL = "https://docs.example.com/api/reference"

	first := OutputPath(pageURL, base)
	for range 3 {
		if got := OutputPath(pageURL, base); got != first {
			t.Fatalf("OutputPath not deterministic: %q then %q", first, got)
		}
	}
}

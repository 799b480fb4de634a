package bot

import "testing"

func TestExtractURLAndNote(t *testing.T) {
	cases := []struct {
		name string
		text string
		url  string
		note string
	}{
		{
			name: "plain url",
			text: "https://example.com/article",
			url:  "https://example.com/article",
			note: "",
		},
		{
			name: "url with trailing note",
			text: "https://example.com/article 很好的 Go 教程",
			url:  "https://example.com/article",
			note: "很好的 Go 教程",
		},
		{
			name: "bare domain",
			text: "example.com/path 备注",
			url:  "example.com/path",
			note: "备注",
		},
		{
			name: "www prefix",
			text: "www.example.com",
			url:  "www.example.com",
			note: "",
		},
		{
			name: "url with query",
			text: "https://example.com/watch?v=abc123",
			url:  "https://example.com/watch?v=abc123",
			note: "",
		},
		{
			name: "no url",
			text: "只是一条普通消息",
			url:  "",
			note: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			url, note := ExtractURLAndNote(tc.text)
			if url != tc.url {
				t.Errorf("Expected url %q, got %q", tc.url, url)
			}
			if note != tc.note {
				t.Errorf("Expected note %q, got %q", tc.note, note)
			}
		})
	}
}

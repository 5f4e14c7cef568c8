package generation

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseFileSetCanonicalObject(t *testing.T) {
	raw := `{"files":[{"path":"index.html","content":"<h1>Hi</h1>"},{"path":"style.css","content":"body{}"}]}`
	fs := ParseFileSet(raw)

	if fs.Len() != 2 {
		t.Fatalf("expected 2 files, got %d", fs.Len())
	}
	paths := fs.Paths()
	if paths[0] != "index.html" || paths[1] != "style.css" {
		t.Fatalf("unexpected path order: %v", paths)
	}
	if content, _ := fs.Get("index.html"); content != "<h1>Hi</h1>" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestParseFileSetBareArray(t *testing.T) {
	raw := `[{"fileName":"index.html","content":"<h1>Hi</h1>"},{"fileName":"app.js","content":"console.log(1)"}]`
	fs := ParseFileSet(raw)

	if fs.Len() != 2 {
		t.Fatalf("expected 2 files, got %d", fs.Len())
	}
	if content, ok := fs.Get("app.js"); !ok || content != "console.log(1)" {
		t.Fatalf("fileName alias not honored, got %q ok=%v", content, ok)
	}
}

func TestParseFileSetStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"files\":[{\"path\":\"index.html\",\"content\":\"<p>x</p>\"}]}\n```"
	fs := ParseFileSet(raw)

	if fs.Len() != 1 {
		t.Fatalf("expected 1 file, got %d", fs.Len())
	}
	if _, ok := fs.Get("index.html"); !ok {
		t.Fatal("index.html missing after fence stripping")
	}
}

func TestParseFileSetDropsInvalidRecords(t *testing.T) {
	raw := `{"files":[
		{"path":"","content":"no path"},
		{"path":"ok.html","content":"fine"},
		{"path":"empty.html","content":""},
		{"path":"  spaced.css  ","content":"trimmed"}
	]}`
	fs := ParseFileSet(raw)

	if fs.Len() != 2 {
		t.Fatalf("expected 2 valid files, got %d: %v", fs.Len(), fs.Paths())
	}
	if _, ok := fs.Get("spaced.css"); !ok {
		t.Fatal("path should be trimmed before becoming the key")
	}
	paths := fs.Paths()
	if paths[0] != "ok.html" || paths[1] != "spaced.css" {
		t.Fatalf("encounter order not preserved: %v", paths)
	}
}

func TestParseFileSetDuplicatePathLastWriteWins(t *testing.T) {
	raw := `{"files":[{"path":"index.html","content":"first"},{"path":"index.html","content":"second"}]}`
	fs := ParseFileSet(raw)

	if fs.Len() != 1 {
		t.Fatalf("expected 1 file, got %d", fs.Len())
	}
	if content, _ := fs.Get("index.html"); content != "second" {
		t.Fatalf("expected last write to win, got %q", content)
	}
}

func TestParseFileSetTotalOnGarbage(t *testing.T) {
	for _, raw := range []string{"", "not json at all", "```\ngarbage\n```", "{\"files\": 42}", "null"} {
		fs := ParseFileSet(raw)
		if fs == nil {
			t.Fatalf("parser returned nil for input %q", raw)
		}
		if raw == "null" || raw == "{\"files\": 42}" {
			continue // 解码为空集或降级集合均可接受，只要求不崩溃
		}
		if fs.Len() != 1 {
			t.Fatalf("expected degraded single-file set for %q, got %d files", raw, fs.Len())
		}
		content, ok := fs.Get(ErrorFilePath)
		if !ok {
			t.Fatalf("degraded set missing %s for input %q", ErrorFilePath, raw)
		}
		if !strings.Contains(content, "not valid JSON") {
			t.Fatalf("diagnostic content should describe the failure, got %q", content)
		}
	}
}

func TestDegradedContentTruncatesOnRuneBoundary(t *testing.T) {
	// 499 个 ASCII 字节后接多字节字符，截断点正好落在字符中间
	raw := strings.Repeat("a", 499) + strings.Repeat("世界", 50)
	fs := ParseFileSet(raw)

	content, ok := fs.Get(ErrorFilePath)
	if !ok {
		t.Fatalf("degraded set missing %s", ErrorFilePath)
	}
	if !utf8.ValidString(content) {
		t.Fatalf("diagnostic content is not valid UTF-8: %q", content)
	}
	if !strings.Contains(content, "…") {
		t.Fatal("long raw response should be truncated with an ellipsis")
	}
}

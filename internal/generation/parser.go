// Package generation 负责把生成后端的原始文本变成规范的文件集。
package generation

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"ai-studio-go/internal/model"
)

// ErrorFilePath 是解析彻底失败时降级文件集里诊断文件的约定路径。
const ErrorFilePath = "error.txt"

// fileRecord 兼容两种历史字段名：标准形状用 path，旧数组形状用 fileName。
type fileRecord struct {
	Path     string `json:"path"`
	FileName string `json:"fileName"`
	Content  string `json:"content"`
}

// fileSetEnvelope 是标准线缆形状 {"files":[...]}。
type fileSetEnvelope struct {
	Files []fileRecord `json:"files"`
}

// ParseFileSet 把生成后端的原始文本解析为 FileSet。
// 该函数是全函数：任意输入（空串、非 JSON、带围栏的 JSON）都会返回一个
// 非 nil 的 FileSet，绝不让解析错误越过此边界。
//
// 合法记录要求 path 与 content 均为非空字符串；不合法的记录被静默丢弃，
// 合法记录保持出现顺序；同一路径后写覆盖先写。
// 整体解析失败时返回只含一个诊断文件的降级 FileSet，保证 UI 始终可渲染。
func ParseFileSet(raw string) *model.FileSet {
	cleaned := stripCodeFences(raw)

	records, ok := decodeRecords(cleaned)
	if !ok {
		fs := model.NewFileSet()
		fs.Set(ErrorFilePath, degradedContent(raw))
		return fs
	}

	fs := model.NewFileSet()
	for _, rec := range records {
		path := rec.Path
		if path == "" {
			path = rec.FileName
		}
		path = strings.TrimSpace(path)
		if path == "" || rec.Content == "" {
			continue
		}
		fs.Set(path, rec.Content)
	}
	return fs
}

// decodeRecords 先按标准对象形状解析，失败后尝试裸数组。
func decodeRecords(cleaned string) ([]fileRecord, bool) {
	var envelope fileSetEnvelope
	if err := json.Unmarshal([]byte(cleaned), &envelope); err == nil && envelope.Files != nil {
		return envelope.Files, true
	}

	var bare []fileRecord
	if err := json.Unmarshal([]byte(cleaned), &bare); err == nil {
		return bare, true
	}
	return nil, false
}

// stripCodeFences 剥离首尾的 markdown 代码围栏。
// 契约上模型不应输出围栏，此处仅做防御。
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		// 去掉第一行围栏（可能带 "json" 语言标记）
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```json")
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// degradedContent 构造诊断文件的内容。
func degradedContent(raw string) string {
	const maxEcho = 500
	snippet := strings.TrimSpace(raw)
	if len(snippet) > maxEcho {
		// 回退到字符边界，避免截断出非法 UTF-8
		cut := maxEcho
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		snippet = snippet[:cut] + "…"
	}
	var b strings.Builder
	b.WriteString("Failed to generate website structure: the model response was not valid JSON.\n")
	if snippet != "" {
		b.WriteString("\nRaw response (truncated):\n")
		b.WriteString(snippet)
		b.WriteString("\n")
	}
	return b.String()
}

package llm

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// systemInstruction 是网站生成的固定系统指令。
// 它精确描述了解析器依赖的输出契约：一个 files 数组的 JSON 对象，
// 不允许任何额外的说明文字或 markdown 围栏。
const systemInstruction = `You are an expert full-stack web developer AI. Your task is to generate a complete, functional, and aesthetically pleasing website based on the user's prompt.

You MUST follow these rules strictly:
1. Generate all necessary files: HTML, CSS, and JavaScript. You can generate multiple CSS and JS files if needed.
2. Create a modern and responsive design using pure HTML, CSS, and JS. Do NOT use any frameworks like React, Vue, or Angular in the generated code unless specifically asked.
3. Ensure the file structure is simple and logical (e.g., index.html, style.css, script.js). All file paths should be relative and at the root level.
4. Your entire response MUST be a single, valid JSON object with exactly one property "files", whose value is an array of file objects.
5. Each file object in the array must have two string properties: "path" and "content".
6. Do not include any explanations, comments, or markdown formatting outside of the file content itself. The response should be ONLY the JSON object.
7. If the user provides files, use their content as context for the website generation. For example, a text file might contain the copy for the website, or an image might be a reference for a logo or banner.
8. Make the generated website visually appealing with a good color palette, typography, and layout.`

// SystemInstruction 返回网站生成的系统指令文本。
func SystemInstruction() string {
	return systemInstruction
}

// UserPrompt 构建用户轮次的提示文本。
func UserPrompt(prompt string) string {
	return fmt.Sprintf("User prompt: %s", prompt)
}

// attachmentHeader 是上下文附件区的分隔标记。
const attachmentHeader = "\n\n--- User-provided files for context ---"

// renderTextAttachments 将上下文文件渲染为纯文本附件区，
// 供不支持二进制 inline 数据的提供方使用。非文本附件仅保留名称与类型标记。
func renderTextAttachments(files []ContextFile) string {
	if len(files) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(attachmentHeader)
	for _, f := range files {
		b.WriteString(fmt.Sprintf("\nFile: %s (%s)\n", f.Name, f.MimeType))
		if strings.HasPrefix(f.MimeType, "text/") || f.MimeType == "application/json" {
			if raw, err := base64.StdEncoding.DecodeString(f.Base64Content); err == nil {
				b.Write(raw)
				b.WriteString("\n")
				continue
			}
		}
		b.WriteString("[binary attachment omitted]\n")
	}
	return b.String()
}

// Package preview 把多文件静态项目压平成单个自包含文档。
// 沙箱 iframe 只接受一个文档，无法从项目的虚拟文件系统中抓取兄弟文件，
// 因此本地引用的样式表与脚本需要内联进根文档。
package preview

import (
	"regexp"
	"strings"

	"ai-studio-go/internal/model"
)

// RootDocument 是项目根文档的约定路径。
const RootDocument = "index.html"

// placeholder 在文件集中缺少根文档时返回。
const placeholder = "<html><body>No index.html found.</body></html>"

var (
	linkTagRe   = regexp.MustCompile(`<link\s+[^>]*?href=["']([^"']+)["'][^>]*>`)
	scriptTagRe = regexp.MustCompile(`<script\s+[^>]*?src=["']([^"']+)["'][^>]*>\s*</script>`)
)

// Assemble 把 FileSet 压平成一个自包含的 HTML 文档。
// 对固定输入输出恒定（纯函数）；没有本地引用时等价于返回根文档本身。
//
// 规则：引用路径必须是文件集中的键且不是绝对 URL 才会被内联；
// 其余引用原样保留。同一文件被多处引用时逐处替换。
func Assemble(fs *model.FileSet) string {
	html, ok := fs.Get(RootDocument)
	if !ok {
		return placeholder
	}

	// 先内联样式表
	for _, match := range linkTagRe.FindAllStringSubmatch(html, -1) {
		tag, href := match[0], match[1]
		if isLocalRef(href, fs) {
			content, _ := fs.Get(href)
			html = strings.Replace(html, tag, "<style>"+content+"</style>", 1)
		}
	}

	// 再内联脚本
	for _, match := range scriptTagRe.FindAllStringSubmatch(html, -1) {
		tag, src := match[0], match[1]
		if isLocalRef(src, fs) {
			content, _ := fs.Get(src)
			html = strings.Replace(html, tag, "<script>"+content+"</script>", 1)
		}
	}

	return html
}

// isLocalRef 报告引用是否指向文件集内的本地文件。
// 只有完整的 URL 前缀才算外部引用，形如 httpdocs/main.css 的路径仍是本地键。
func isLocalRef(ref string, fs *model.FileSet) bool {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "//") {
		return false
	}
	_, ok := fs.Get(ref)
	return ok
}

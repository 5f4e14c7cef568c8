// Package model 包含了应用的数据模型定义。
package model

import "encoding/json"

// ChatMessage 代表一条角色消息。
type ChatMessage struct {
	Role    string `json:"role"` // "system"、"user" 或 "assistant"
	Content string `json:"content"`
}

// ProjectFile 代表生成项目中的单个文件。
type ProjectFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// UploadedFile 是用户上传的上下文附件，作为生成请求的参考材料。
type UploadedFile struct {
	Name          string `json:"name"`
	MimeType      string `json:"mimeType"`
	SizeBytes     int64  `json:"sizeBytes"`
	Base64Content string `json:"base64Content"`
}

// FileSet 是一次生成调用产出的 路径 -> 内容 映射。
// 保留插入顺序用于展示；同一路径后写覆盖先写。
// 一个 FileSet 总是由单次生成响应原子构建，不与旧结果合并。
type FileSet struct {
	paths    []string
	contents map[string]string
}

// NewFileSet 创建一个空的 FileSet。
func NewFileSet() *FileSet {
	return &FileSet{contents: make(map[string]string)}
}

// Set 写入一个文件。路径已存在时仅覆盖内容，保持首次出现的顺序。
func (fs *FileSet) Set(path, content string) {
	if _, ok := fs.contents[path]; !ok {
		fs.paths = append(fs.paths, path)
	}
	fs.contents[path] = content
}

// Get 返回指定路径的内容。
func (fs *FileSet) Get(path string) (string, bool) {
	content, ok := fs.contents[path]
	return content, ok
}

// Len 返回文件数量。
func (fs *FileSet) Len() int {
	return len(fs.paths)
}

// IsEmpty 报告 FileSet 是否为空。
func (fs *FileSet) IsEmpty() bool {
	return len(fs.paths) == 0
}

// Paths 按插入顺序返回所有路径。
func (fs *FileSet) Paths() []string {
	out := make([]string, len(fs.paths))
	copy(out, fs.paths)
	return out
}

// Files 按插入顺序导出为 ProjectFile 切片。
func (fs *FileSet) Files() []ProjectFile {
	files := make([]ProjectFile, 0, len(fs.paths))
	for _, p := range fs.paths {
		files = append(files, ProjectFile{Path: p, Content: fs.contents[p]})
	}
	return files
}

// MarshalFiles 将文件集序列化为 JSON 数组，用于持久化。
func (fs *FileSet) MarshalFiles() (string, error) {
	data, err := json.Marshal(fs.Files())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FileSetFromFiles 从 ProjectFile 列表构建 FileSet（后写覆盖先写）。
func FileSetFromFiles(files []ProjectFile) *FileSet {
	fs := NewFileSet()
	for _, f := range files {
		fs.Set(f.Path, f.Content)
	}
	return fs
}

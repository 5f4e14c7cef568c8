// Package archive 负责把生成的文件集打包成可下载的 zip 归档。
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"

	"ai-studio-go/internal/model"
)

// ErrEmptyFileSet 表示没有可导出的文件，导出被拒绝。
var ErrEmptyFileSet = errors.New("no files to export")

// BuildZip 把文件列表打包成标准 zip 字节流。
// 每个文件成为归档内同路径的一个条目，路径原样使用以支持嵌套目录。
// 空列表返回 ErrEmptyFileSet 而不是产出空归档。
func BuildZip(files []model.ProjectFile) ([]byte, error) {
	if len(files) == 0 {
		return nil, ErrEmptyFileSet
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		entry, err := w.Create(f.Path)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %q: %w", f.Path, err)
		}
		if _, err := entry.Write([]byte(f.Content)); err != nil {
			return nil, fmt.Errorf("write zip entry %q: %w", f.Path, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildZipFromFileSet 是 BuildZip 的 FileSet 便捷入口。
func BuildZipFromFileSet(fs *model.FileSet) ([]byte, error) {
	return BuildZip(fs.Files())
}

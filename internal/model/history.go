package model

import "time"

// Chat 代表一次保存下来的对话记录。
// Messages 以 JSON 文本存储完整的消息序列。
type Chat struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);index;not null" json:"userId"`
	Messages  string    `gorm:"type:text;not null" json:"messages"`
	ModelUsed string    `gorm:"type:varchar(64)" json:"modelUsed"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Chat) TableName() string {
	return "chats"
}

// Project 代表一次成功生成的网站项目。
// Files 以 JSON 文本存储 {path, content} 列表。
type Project struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);index;not null" json:"userId"`
	Prompt    string    `gorm:"type:text;not null" json:"prompt"`
	Files     string    `gorm:"type:longtext;not null" json:"files"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Project) TableName() string {
	return "projects"
}

// FileRecord 代表一个上传到对象存储的上下文文件。
type FileRecord struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      string    `gorm:"type:varchar(36);index;not null" json:"userId"`
	Filename    string    `gorm:"type:varchar(255);not null" json:"filename"`
	StoragePath string    `gorm:"type:varchar(255);not null" json:"storagePath"`
	Size        int64     `gorm:"not null" json:"size"`
	ContentType string    `gorm:"type:varchar(128)" json:"contentType"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (FileRecord) TableName() string {
	return "file_records"
}

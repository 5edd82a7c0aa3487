package objects

import "time"

// ApiLog 每次调用上游新闻 API 追加一行
type ApiLog struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement"`
	ApiProvider     string    `gorm:"size:64;not null;index"`
	Endpoint        string    `gorm:"size:255;not null"`
	StatusCode      int       `gorm:"not null"`
	ResponseTime    int64     `gorm:"not null;comment:毫秒"`
	ArticlesFetched int       `gorm:"not null;default:0"`
	ErrorMessage    *string   `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"index"`
}

func (ApiLog) TableName() string {
	return "api_logs"
}

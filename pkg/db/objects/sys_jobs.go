package objects

import (
	"time"

	"gorm.io/gorm"
)

// SysJob 对应 sys_jobs 表，数据库里定义的定时任务
type SysJob struct {
	ID             uint           `gorm:"primarykey"`
	Name           string         `gorm:"uniqueIndex;size:128"` // 任务名称
	CronExpr       string         `gorm:"size:64"`
	ServiceHandler string         `gorm:"size:128"` // 关联 tasks 注册表里的 key
	Params         map[string]any `gorm:"serializer:json;type:json"`
	Retries        int            `gorm:"default:0"`
	Status         int            `gorm:"default:1"` // 1 Enable, 0 Disable
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (SysJob) TableName() string {
	return "sys_jobs"
}

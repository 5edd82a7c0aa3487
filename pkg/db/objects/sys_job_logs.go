package objects

import "time"

const (
	JobLogRunning = 0
	JobLogSuccess = 1
	JobLogFailed  = 2
)

// SysJobLog 对应 sys_job_logs 表，每次尝试一行
type SysJobLog struct {
	ID          uint   `gorm:"primarykey"`
	RunID       string `gorm:"index;size:36"`
	JobName     string `gorm:"index;size:128"`
	HandlerName string `gorm:"size:128"`
	Attempt     int
	Status      int // 0 Running, 1 Success, 2 Failed
	ErrorMsg    string `gorm:"type:text"`
	DurationMs  int64
	StartTime   time.Time
	EndTime     *time.Time
}

func (s SysJobLog) TableName() string {
	return "sys_job_logs"
}

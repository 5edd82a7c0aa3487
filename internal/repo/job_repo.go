package repo

import (
	"context"

	"github.com/iceymoss/go-newsfeed/pkg/db/objects"

	"gorm.io/gorm"
)

type JobRepo struct {
	db *gorm.DB
}

func NewJobRepo(db *gorm.DB) *JobRepo { return &JobRepo{db: db} }

// GetActiveJobs 获取所有开启的任务
func (r *JobRepo) GetActiveJobs(ctx context.Context) ([]*objects.SysJob, error) {
	var list []*objects.SysJob
	err := r.db.WithContext(ctx).Where("status = ?", 1).Order("id").Find(&list).Error
	return list, err
}

// CreateLog 开始记录日志
func (r *JobRepo) CreateLog(ctx context.Context, log *objects.SysJobLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// UpdateLog 任务结束更新日志
func (r *JobRepo) UpdateLog(ctx context.Context, log *objects.SysJobLog) error {
	return r.db.WithContext(ctx).Save(log).Error
}

// RecentLogs 最近的运行记录，jobName 为空时返回全部
func (r *JobRepo) RecentLogs(ctx context.Context, jobName string, limit int) ([]*objects.SysJobLog, error) {
	q := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if jobName != "" {
		q = q.Where("job_name = ?", jobName)
	}
	var list []*objects.SysJobLog
	return list, q.Find(&list).Error
}

package core

import "time"

// 任务来源
const (
	JobSourceSystem = "SYSTEM"
	JobSourceYAML   = "YAML"
	JobSourceDB     = "DB"
)

// JobSpec 描述一个定时任务：调度表达式 + 任务实现 + 参数
type JobSpec struct {
	Name    string         // 唯一任务名
	Handler string         // tasks 注册表里的 key
	Cron    string         // 六段 cron（带秒）或 @every 形式
	Params  map[string]any // 传给 Task.Run 的参数
	Retries int            // 失败后的重试次数
	Timeout time.Duration  // 单次执行超时
	Source  string
}

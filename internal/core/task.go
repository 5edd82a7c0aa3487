package core

import "context"

// Task 是调度器执行的最小单元
type Task interface {
	// Run 执行一次；params 来自自动注册、YAML 或 sys_jobs
	Run(ctx context.Context, params map[string]any) error
	// Identifier 日志里使用的任务标识
	Identifier() string
}

// TaskCreator 每次取任务时新建实例，任务之间不共享状态
type TaskCreator func() Task

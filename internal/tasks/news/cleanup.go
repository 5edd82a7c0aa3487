package news

import (
	"context"
	"fmt"
	"strconv"
)

// CleanupTask 删除超过保留期的文章，params.retention_days 可覆盖配置
type CleanupTask struct {
	cleanup Purger
}

func (t *CleanupTask) Identifier() string { return TaskCleanup }

func (t *CleanupTask) Run(ctx context.Context, params map[string]any) error {
	days, err := intParam(params, "retention_days")
	if err != nil {
		return err
	}
	_, err = t.cleanup.Run(ctx, days)
	return err
}

// intParam 兼容 yaml(int)、json(float64) 和字符串三种来源，缺省返回 0
func intParam(params map[string]any, key string) (int, error) {
	switch v := params[key].(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("param %s: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("param %s: unsupported type %T", key, v)
	}
}

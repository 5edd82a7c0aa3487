package news

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// SyncSourcesTask 拉取每个 provider 的来源列表并写入 sources 表
type SyncSourcesTask struct {
	agg     Fetcher
	sources SourceStore
	logger  *zap.Logger
}

func (t *SyncSourcesTask) Identifier() string { return TaskSyncSources }

func (t *SyncSourcesTask) Run(ctx context.Context, _ map[string]any) error {
	var errs []error
	for _, name := range t.agg.Providers() {
		p, ok := t.agg.Provider(name)
		if !ok {
			continue
		}
		synced := 0
		for _, src := range p.Sources(ctx) {
			if src.Name == "" {
				continue
			}
			if _, err := t.sources.FindOrCreateSource(ctx, src.Name); err != nil {
				errs = append(errs, fmt.Errorf("%s source %q: %w", name, src.Name, err))
				continue
			}
			synced++
		}
		t.logger.Info("sources synced", zap.String("provider", name), zap.Int("count", synced))
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

package recall

import (
	"context"

	"github.com/Sreddy08840/agri-connect/core"
)

// DefaultViewWindowDays 是浏览记录的默认回看窗口。
// 与离线训练侧的取数口径一致；是配置默认值而非硬性约束。
const DefaultViewWindowDays = 30

// LoadHistory 从 HistoryStore 拉取一份用户行为快照。
// 编排层每次请求取一次放进 rctx.History；打分源单独使用时自己兜底调用。
func LoadHistory(ctx context.Context, hs core.HistoryStore, userID string, viewDays int) (*core.UserHistory, error) {
	if hs == nil {
		return &core.UserHistory{}, nil
	}
	if viewDays <= 0 {
		viewDays = DefaultViewWindowDays
	}

	interactions, err := hs.GetInteractions(ctx, userID)
	if err != nil {
		return nil, err
	}
	viewed, err := hs.GetRecentViews(ctx, userID, viewDays)
	if err != nil {
		return nil, err
	}
	return &core.UserHistory{Interactions: interactions, Viewed: viewed}, nil
}

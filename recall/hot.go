package recall

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Sreddy08840/agri-connect/core"
)

// Hot 是热销打分源：按销量 TopN 取物品，分数从 1.0 线性衰减到 0.5。
// 冷启动（用户无任何历史）和所有个性化路径都无结果时的兜底都走它；
// 只有销量数据也为空时才返回空列表。
type Hot struct {
	// History 是行为数据后端，提供热销榜。
	History core.HistoryStore

	// TopK 返回的候选数，<=0 时取 rctx.TopK，再兜底 20。
	TopK int

	// Log 为零值时静默。
	Log zerolog.Logger
}

func (r *Hot) Name() string {
	return "recall.hot"
}

func (r *Hot) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.History == nil {
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 && rctx != nil {
		topK = rctx.TopK
	}
	if topK <= 0 {
		topK = 20
	}

	ids, err := r.History.GetTopSelling(ctx, topK)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	out := make([]*core.Item, 0, len(ids))
	for i, id := range ids {
		it := core.NewItem(id)
		it.Score = decayScore(i, len(ids))
		it.AddReason(core.ReasonPopular)
		out = append(out, it)
	}
	return out, nil
}

// decayScore 返回榜单第 i 位（0 起）的分数：n 个物品从 1.0 严格线性降到 0.5。
// 例如 n=4 时为 1.0、0.833、0.667、0.5；n=1 时为 1.0。
func decayScore(i, n int) float64 {
	if n <= 1 {
		return 1.0
	}
	return 1.0 - float64(i)/float64(n-1)*0.5
}

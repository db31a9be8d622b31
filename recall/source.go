package recall

import (
	"context"

	"github.com/Sreddy08840/agri-connect/core"
)

// Source 表示一个可复用的打分源（协同过滤/内容/热销/...）。
// 约定：前置条件不满足（模型未加载、用户无可用历史）返回 (nil, nil)，
// 是建模过的"空"状态而不是错误；错误只用于后端访问失败。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

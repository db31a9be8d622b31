package filter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Sreddy08840/agri-connect/core"
)

// Filter 是过滤器的抽象接口，用于判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Apply 依次对 items 应用所有过滤器，返回保留的物品，顺序不变。
// 单个过滤器出错时记录日志并保留该物品，不让过滤故障拖垮整条请求。
func Apply(
	ctx context.Context,
	filters []Filter,
	rctx *core.RecommendContext,
	items []*core.Item,
	log zerolog.Logger,
) []*core.Item {
	if len(filters) == 0 || len(items) == 0 {
		return items
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		keep := true
		for _, f := range filters {
			drop, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				log.Warn().
					Err(err).
					Str("filter", f.Name()).
					Str("item_id", item.ID).
					Msg("filter failed, keeping item")
				continue
			}
			if drop {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, item)
		}
	}
	return out
}

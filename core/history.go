package core

import (
	"context"
	"time"
)

// InteractionType 是用户行为事件的类型。
// 权重只在离线训练侧使用；在线打分只关心按时间倒序的物品序列。
type InteractionType string

const (
	InteractionPurchase  InteractionType = "purchase"
	InteractionAddToCart InteractionType = "add_to_cart"
	InteractionFavorite  InteractionType = "favorite"
	InteractionView      InteractionType = "view"
)

// Weight 返回事件类型的隐式权重，与订单/事件表的离线口径一致：
// purchase=5, add_to_cart=3, favorite=2, view=1，其余 0.5。
func (t InteractionType) Weight() float64 {
	switch t {
	case InteractionPurchase:
		return 5.0
	case InteractionAddToCart:
		return 3.0
	case InteractionFavorite:
		return 2.0
	case InteractionView:
		return 1.0
	default:
		return 0.5
	}
}

// InteractionEvent 是一条用户-物品交互记录。
type InteractionEvent struct {
	ItemID string          `json:"item_id"`
	Type   InteractionType `json:"type"`
	At     time.Time       `json:"at"`
}

// HistoryStore 是行为数据访问的领域接口，由事务库/KV 适配层实现。
// 引擎对它只读；数据本身归外部交易系统所有。
type HistoryStore interface {
	// Name 返回后端名称（用于日志/监控）
	Name() string

	// GetInteractions 获取用户的交互历史（有效订单），按时间倒序。
	GetInteractions(ctx context.Context, userID string) ([]InteractionEvent, error)

	// GetRecentViews 获取用户最近 days 天内浏览过的物品 ID 列表。
	GetRecentViews(ctx context.Context, userID string, days int) ([]string, error)

	// GetTopSelling 获取按销量（非取消订单的件数合计）排序的 TopN 物品。
	GetTopSelling(ctx context.Context, limit int) ([]string, error)
}

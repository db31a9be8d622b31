package store

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/Sreddy08840/agri-connect/core"
)

// KVHistory 是 KeyValueStore 之上的行为数据适配层，实现 core.HistoryStore。
// 交易系统把订单/浏览事件投影到 KV 里，推荐引擎只读消费：
//
//	history:orders:{user}  订单交互的 JSON 数组，按时间倒序
//	history:views:{user}   Hash：物品 ID -> 最近一次浏览时间（RFC3339）
//	sales:top              有序集合：物品 ID -> 非取消订单的累计件数
type KVHistory struct {
	kv  core.KeyValueStore
	now func() time.Time
}

const (
	ordersKeyPrefix = "history:orders:"
	viewsKeyPrefix  = "history:views:"
	topSellingKey   = "sales:top"
)

func NewKVHistory(kv core.KeyValueStore) *KVHistory {
	return &KVHistory{kv: kv, now: time.Now}
}

var _ core.HistoryStore = (*KVHistory)(nil)

func (h *KVHistory) Name() string { return "kv_history" }

// GetInteractions 返回用户的订单交互，按时间倒序。key 不存在视为无历史。
func (h *KVHistory) GetInteractions(ctx context.Context, userID string) ([]core.InteractionEvent, error) {
	data, err := h.kv.Get(ctx, ordersKeyPrefix+userID)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var events []core.InteractionEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.After(events[j].At)
	})
	return events, nil
}

// GetRecentViews 返回最近 days 天内浏览过的物品 ID，按最近一次浏览时间倒序。
func (h *KVHistory) GetRecentViews(ctx context.Context, userID string, days int) ([]string, error) {
	fields, err := h.kv.HGetAll(ctx, viewsKeyPrefix+userID)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	cutoff := h.now().AddDate(0, 0, -days)

	type view struct {
		itemID string
		at     time.Time
	}
	views := make([]view, 0, len(fields))
	for itemID, raw := range fields {
		at, err := time.Parse(time.RFC3339, string(raw))
		if err != nil {
			// 脏数据跳过，不影响其余浏览记录
			continue
		}
		if at.Before(cutoff) {
			continue
		}
		views = append(views, view{itemID: itemID, at: at})
	}

	sort.Slice(views, func(i, j int) bool {
		if !views[i].at.Equal(views[j].at) {
			return views[i].at.After(views[j].at)
		}
		return views[i].itemID < views[j].itemID
	})

	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.itemID)
	}
	return out, nil
}

// GetTopSelling 返回销量最高的 limit 个物品。
func (h *KVHistory) GetTopSelling(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	return h.kv.ZRange(ctx, topSellingKey, 0, int64(limit-1))
}

// RecordInteraction 投影一条交互事件：浏览进 Hash，订单进 JSON 数组；
// 购买同时按件数累加热销榜分数。引擎本身不调用它，供交易侧同步任务和测试种子使用。
func (h *KVHistory) RecordInteraction(ctx context.Context, userID string, ev core.InteractionEvent, qty int) error {
	if ev.Type == core.InteractionView {
		return h.kv.HSet(ctx, viewsKeyPrefix+userID, ev.ItemID, []byte(ev.At.Format(time.RFC3339)))
	}

	key := ordersKeyPrefix + userID
	var events []core.InteractionEvent
	if data, err := h.kv.Get(ctx, key); err == nil {
		if err := json.Unmarshal(data, &events); err != nil {
			return err
		}
	} else if !core.IsStoreNotFound(err) {
		return err
	}

	events = append([]core.InteractionEvent{ev}, events...)
	data, err := json.Marshal(events)
	if err != nil {
		return err
	}
	if err := h.kv.Set(ctx, key, data); err != nil {
		return err
	}

	if ev.Type == core.InteractionPurchase {
		if qty <= 0 {
			qty = 1
		}
		sold, err := h.kv.ZScore(ctx, topSellingKey, ev.ItemID)
		if err != nil && !core.IsStoreNotFound(err) {
			return err
		}
		return h.kv.ZAdd(ctx, topSellingKey, sold+float64(qty), ev.ItemID)
	}
	return nil
}

package recommend

import (
	"github.com/Sreddy08840/agri-connect/core"
	"github.com/Sreddy08840/agri-connect/model"
)

// Method 标识一次推荐最终走的路径，随响应返回方便排查线上效果。
const (
	MethodHybridCached  = "hybrid (cached)"
	MethodHybrid        = "hybrid"
	MethodCollaborative = "collaborative"
	MethodContent       = "content-based"
	MethodColdStart     = "popular (cold-start)"
	MethodFallback      = "popular (fallback)"
)

// Response 是一次推荐请求的结果。
type Response struct {
	UserID string       `json:"user_id"`
	Items  []*core.Item `json:"recommendations"`
	Method string       `json:"method"`
}

// Stats 是缓存与模型状态的运维快照。
type Stats struct {
	Size       int             `json:"size"`
	TTLSeconds int             `json:"ttl_seconds"`
	Models     model.Readiness `json:"models_loaded"`
}

// scorerState 是单个打分器在一次请求中的结果状态。
// 三态区分"模型没加载"和"模型在但没打出分"，两者走的降级路径不同。
type scorerState int

const (
	scorerUnavailable scorerState = iota // 模型未就绪或执行失败
	scorerEmpty                          // 模型就绪但无候选
	scorerScored                         // 有候选
)

type scorerResult struct {
	state scorerState
	items []*core.Item
}

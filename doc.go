// Package agriconnect 是农产品商城的推荐引擎。
//
// 设计要点：
// - 双路打分：ALS 协同过滤 + TF-IDF 内容相似，按权重融合
// - 逐级降级：缓存 → 融合 → 单模型 → 热销兜底，任何一级失败落到下一级
// - 模型换代原子化：三个制品整体加载后一次指针替换，请求内只读同一代
package agriconnect

import (
	"github.com/Sreddy08840/agri-connect/core"
	"github.com/Sreddy08840/agri-connect/recommend"
)

// 轻量 facade：便于用户直接 import 根包使用核心抽象。
type Engine = recommend.Engine
type Response = recommend.Response
type Item = core.Item
type Product = core.Product

const (
	MethodHybridCached  = recommend.MethodHybridCached
	MethodHybrid        = recommend.MethodHybrid
	MethodCollaborative = recommend.MethodCollaborative
	MethodContent       = recommend.MethodContent
	MethodColdStart     = recommend.MethodColdStart
	MethodFallback      = recommend.MethodFallback
)

package model

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Sreddy08840/agri-connect/core"
)

// 制品 blob 的默认 key（文件目录后端下即文件名）。
const (
	DefaultALSKey      = "als.json"
	DefaultTFIDFKey    = "tfidf.json"
	DefaultMappingsKey = "mappings.json"
)

// Generation 是一代已加载的模型状态，加载完成后不可变。
// 打分路径在请求开始时取一次快照，整个请求内只读同一代，
// 并发 Refresh 不会产生"半新半旧"的读取。
type Generation struct {
	ALS      *ALSModel
	TFIDF    *TFIDFModel
	Mappings *Mappings
}

// CollaborativeReady 协同过滤模型是否可用。
func (g *Generation) CollaborativeReady() bool { return g != nil && g.ALS != nil }

// ContentReady 内容模型是否可用。
func (g *Generation) ContentReady() bool { return g != nil && g.TFIDF != nil }

// MappingsReady ID 映射是否可用。
func (g *Generation) MappingsReady() bool { return g != nil && g.Mappings != nil }

// Readiness 是三个制品各自的就绪标志，对应 /cache/stats 的 models_loaded。
type Readiness struct {
	Collaborative bool `json:"als"`
	Content       bool `json:"tfidf"`
	Mappings      bool `json:"mappings"`
}

// Loader 负责把三个制品 blob 读进内存并整体替换模型状态。
//
// 行为约定：
//   - 三个制品独立加载，单个缺失/解析失败只影响自己的就绪标志
//   - 新一代 Generation 完整构建后才做一次指针替换，读方永远看不到半成品
//   - Load/Refresh 互斥，同时只有一个写者
//   - 对制品存储只读
type Loader struct {
	// Artifacts 是制品存储后端（文件目录 / Redis / 内存）。
	Artifacts core.Store

	// 三个制品的 key；为空时使用 Default*Key。
	ALSKey      string
	TFIDFKey    string
	MappingsKey string

	// Log 为零值时静默。
	Log zerolog.Logger

	mu  sync.Mutex
	gen atomic.Pointer[Generation]
}

// Load 依次尝试读取三个制品并整体替换当前模型状态，返回新一代的就绪标志。
func (l *Loader) Load(ctx context.Context) Readiness {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := &Generation{}

	if data, ok := l.fetch(ctx, l.key(l.ALSKey, DefaultALSKey)); ok {
		als, err := DecodeALS(data)
		if err != nil {
			l.Log.Error().Err(err).Msg("als artifact unusable")
		} else {
			next.ALS = als
		}
	}

	if data, ok := l.fetch(ctx, l.key(l.TFIDFKey, DefaultTFIDFKey)); ok {
		tfidf, err := DecodeTFIDF(data)
		if err != nil {
			l.Log.Error().Err(err).Msg("tfidf artifact unusable")
		} else {
			next.TFIDF = tfidf
		}
	}

	if data, ok := l.fetch(ctx, l.key(l.MappingsKey, DefaultMappingsKey)); ok {
		mappings, err := DecodeMappings(data)
		if err != nil {
			l.Log.Error().Err(err).Msg("mappings artifact unusable")
		} else {
			next.Mappings = mappings
		}
	}

	// 整代替换：唯一一次对外可见的状态变更
	l.gen.Store(next)

	r := readinessOf(next)
	l.Log.Info().
		Bool("als", r.Collaborative).
		Bool("tfidf", r.Content).
		Bool("mappings", r.Mappings).
		Msg("model generation loaded")
	return r
}

// Refresh 重新执行 Load。调用方（编排层）负责随后清空结果缓存。
func (l *Loader) Refresh(ctx context.Context) Readiness {
	return l.Load(ctx)
}

// Snapshot 返回当前模型代；尚未加载过时返回空代（全部未就绪）。
// 调用方应在请求开始时取一次并全程使用同一个返回值。
func (l *Loader) Snapshot() *Generation {
	if g := l.gen.Load(); g != nil {
		return g
	}
	return &Generation{}
}

// Readiness 返回当前模型代的就绪标志。
func (l *Loader) Readiness() Readiness {
	return readinessOf(l.Snapshot())
}

func (l *Loader) key(k, def string) string {
	if k != "" {
		return k
	}
	return def
}

func (l *Loader) fetch(ctx context.Context, key string) ([]byte, bool) {
	if l.Artifacts == nil {
		return nil, false
	}
	data, err := l.Artifacts.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			l.Log.Info().Str("artifact", key).Msg("artifact not present")
		} else {
			l.Log.Error().Err(err).Str("artifact", key).Msg("artifact read failed")
		}
		return nil, false
	}
	return data, true
}

func readinessOf(g *Generation) Readiness {
	return Readiness{
		Collaborative: g.CollaborativeReady(),
		Content:       g.ContentReady(),
		Mappings:      g.MappingsReady(),
	}
}

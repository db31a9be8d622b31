package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/Sreddy08840/agri-connect/core"
	"github.com/Sreddy08840/agri-connect/filter"
	"github.com/Sreddy08840/agri-connect/model"
	"github.com/Sreddy08840/agri-connect/recommend"
	"github.com/Sreddy08840/agri-connect/store"
)

// Config 是推荐引擎的完整配置。
// 所有数值字段都是"零值即默认"：未配置的字段由对应组件内部取默认值。
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Cache     CacheConfig     `yaml:"cache"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	History   HistoryConfig   `yaml:"history"`
	Filters   FiltersConfig   `yaml:"filters"`
}

// EngineConfig 是编排层参数。
type EngineConfig struct {
	// DefaultTopK 请求未指定时的返回条数
	DefaultTopK int `yaml:"default_top_k"`
	// CFWeight/CBWeight 融合权重，两者都为 0 时用 0.7/0.3
	CFWeight float64 `yaml:"cf_weight"`
	CBWeight float64 `yaml:"cb_weight"`
	// SeedCount 协同路种子物品数
	SeedCount int `yaml:"seed_count"`
	// ExtraPerSeed 协同路每个种子多取的近邻数
	ExtraPerSeed int `yaml:"extra_per_seed"`
	// ViewWindowDays 浏览记录回看窗口（天）
	ViewWindowDays int `yaml:"view_window_days"`
}

// CacheConfig 是结果缓存参数。
type CacheConfig struct {
	// Disabled 为 true 时关闭结果缓存
	Disabled bool `yaml:"disabled"`
	// TTLSeconds 条目存活秒数
	TTLSeconds int `yaml:"ttl_seconds"`
	// Capacity 最大条目数
	Capacity int `yaml:"capacity"`
}

// ArtifactsConfig 是模型制品的来源。
type ArtifactsConfig struct {
	// Dir 制品文件目录
	Dir string `yaml:"dir"`
	// 三个制品的 key（文件名），为空时用 als.json / tfidf.json / mappings.json
	ALSKey      string `yaml:"als_key"`
	TFIDFKey    string `yaml:"tfidf_key"`
	MappingsKey string `yaml:"mappings_key"`
}

// HistoryConfig 是行为数据后端。
type HistoryConfig struct {
	// Backend 为 "memory" 或 "redis"，默认 memory
	Backend string `yaml:"backend"`
	Redis   struct {
		Addr string `yaml:"addr"`
		DB   int    `yaml:"db"`
	} `yaml:"redis"`
}

// FiltersConfig 是结果过滤配置。
type FiltersConfig struct {
	// Blacklist 直接剔除的物品 ID
	Blacklist []string `yaml:"blacklist"`
	// Rules 是 CEL 规则表达式，求值为 true 的物品被剔除
	Rules []string `yaml:"rules"`
}

// Default 返回与线上默认行为一致的配置。
func Default() *Config {
	cfg := &Config{}
	cfg.Engine.DefaultTopK = 20
	cfg.Engine.CFWeight = 0.7
	cfg.Engine.CBWeight = 0.3
	cfg.Engine.SeedCount = 5
	cfg.Engine.ExtraPerSeed = 10
	cfg.Engine.ViewWindowDays = 30
	cfg.Cache.TTLSeconds = 3600
	cfg.Cache.Capacity = 1000
	cfg.Artifacts.Dir = "./models"
	cfg.History.Backend = "memory"
	return cfg
}

// LoadYAML 解析 YAML 配置内容。未出现的字段保持 Default 值。
func LoadYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	return cfg, nil
}

// LoadFile 读取并解析 YAML 配置文件。
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return LoadYAML(data)
}

// Build 按配置组装整个引擎：制品存储、模型加载、行为数据后端、
// 结果缓存、过滤器。会执行一次初始模型加载，加载失败不报错
// （引擎自己会降级），但 Redis 连不上会报错。
func (c *Config) Build(ctx context.Context, log zerolog.Logger) (*recommend.Engine, error) {
	loader := &model.Loader{
		Artifacts:   &store.FileStore{Dir: c.Artifacts.Dir},
		ALSKey:      c.Artifacts.ALSKey,
		TFIDFKey:    c.Artifacts.TFIDFKey,
		MappingsKey: c.Artifacts.MappingsKey,
		Log:         log,
	}
	loader.Load(ctx)

	history, err := c.buildHistory()
	if err != nil {
		return nil, err
	}

	var cache *store.ResultCache
	if !c.Cache.Disabled {
		cache = store.NewResultCache(
			time.Duration(c.Cache.TTLSeconds)*time.Second,
			c.Cache.Capacity,
		)
	}

	filters, err := c.buildFilters()
	if err != nil {
		return nil, err
	}

	return &recommend.Engine{
		Loader:         loader,
		History:        history,
		Cache:          cache,
		Filters:        filters,
		CFWeight:       c.Engine.CFWeight,
		CBWeight:       c.Engine.CBWeight,
		SeedCount:      c.Engine.SeedCount,
		ExtraPerSeed:   c.Engine.ExtraPerSeed,
		ViewWindowDays: c.Engine.ViewWindowDays,
		DefaultTopK:    c.Engine.DefaultTopK,
		Log:            log,
	}, nil
}

func (c *Config) buildHistory() (core.HistoryStore, error) {
	switch c.History.Backend {
	case "", "memory":
		return store.NewKVHistory(store.NewMemoryStore()), nil
	case "redis":
		rs, err := store.NewRedisStore(c.History.Redis.Addr, c.History.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("config: redis history: %w", err)
		}
		return store.NewKVHistory(rs), nil
	default:
		return nil, fmt.Errorf("config: unknown history backend: %s", c.History.Backend)
	}
}

func (c *Config) buildFilters() ([]filter.Filter, error) {
	var filters []filter.Filter
	if len(c.Filters.Blacklist) > 0 {
		filters = append(filters, &filter.BlacklistFilter{ItemIDs: c.Filters.Blacklist})
	}
	for _, expr := range c.Filters.Rules {
		f, err := filter.NewRuleFilter(expr)
		if err != nil {
			return nil, fmt.Errorf("config: rule %q: %w", expr, err)
		}
		filters = append(filters, f)
	}
	return filters, nil
}

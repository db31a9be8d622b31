package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/Sreddy08840/agri-connect/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("user", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Rule 是一条编译后的过滤规则，使用 CEL (Common Expression Language) 表达。
// 编译一次后可被并发复用，每次请求只做求值。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：item.id == "P9" / user.id == "u_blocked"
//   - 数值：item.score > 0.7 / item.score >= 0.5
//   - 来源："collaborative" in item.reasons / "popular" in item.reasons
//   - 逻辑："hybrid" in item.reasons && item.score < 0.1
//
// 示例：
//   - `"popular" in item.reasons` → 命中兜底召回的物品
//   - `item.score < 0.05` → 分数过低的物品
type Rule struct {
	expr string
	prg  cel.Program
}

// Compile 编译一条 CEL 规则表达式。空表达式返回错误。
func Compile(expr string) (*Rule, error) {
	if expr == "" {
		return nil, fmt.Errorf("dsl: empty expression")
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: env error: %v", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile error: %v", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program error: %v", err)
	}

	return &Rule{expr: expr, prg: prg}, nil
}

// Expr 返回规则的原始表达式文本。
func (r *Rule) Expr() string { return r.expr }

// Eval 对单个物品求值，返回布尔结果。
func (r *Rule) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	input := buildInput(item, rctx)

	out, _, err := r.prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("dsl: eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	reasons := make([]interface{}, 0, len(item.Reasons))
	for _, r := range item.Reasons {
		reasons = append(reasons, r)
	}

	itemMap := map[string]interface{}{
		"id":      item.ID,
		"score":   item.Score,
		"reasons": reasons,
	}

	userMap := map[string]interface{}{}
	if rctx != nil {
		userMap["id"] = rctx.UserID
		userMap["top_k"] = rctx.TopK
	}

	return map[string]interface{}{
		"item": itemMap,
		"user": userMap,
	}
}

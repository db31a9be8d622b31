package filter

import (
	"context"

	"github.com/Sreddy08840/agri-connect/core"
	"github.com/Sreddy08840/agri-connect/pkg/dsl"
)

// RuleFilter 是基于 CEL 表达式的规则过滤器。
// 表达式求值为 true 时过滤掉该物品。
//
// 示例：
//
//	f, _ := filter.NewRuleFilter(`item.score < 0.05`)
//	f, _ := filter.NewRuleFilter(`"popular" in item.reasons && user.top_k < 5`)
type RuleFilter struct {
	rule *dsl.Rule
}

// NewRuleFilter 编译表达式并创建规则过滤器。表达式非法时返回错误。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	rule, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &RuleFilter{rule: rule}, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

// Expr 返回过滤规则的表达式文本。
func (f *RuleFilter) Expr() string {
	return f.rule.Expr()
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return f.rule.Eval(item, rctx)
}

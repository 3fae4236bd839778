package gate

import (
	"slices"
	"strings"
)

// latinExitKeywords end a review session when matched case-insensitively
// against the lowercased, whitespace-trimmed input line.
var latinExitKeywords = []string{
	"task_complete", "continue", "next", "end", "complete", "endtask",
	"continue_task", "end_task", "ok", "okay", "done", "proceed", "accept",
	"approved", "submit", "final", "finish", "go",
}

// cjkExitKeywords end a review session only on exact string equality.
// No case folding or unicode normalization is applied.
var cjkExitKeywords = []string{
	"没问题", "继续", "下一步", "完成", "结束任务", "结束", "可以", "好了",
	"通过", "接受", "提交", "最终", "搞定", "行",
}

var (
	latinSet = make(map[string]struct{}, len(latinExitKeywords))
	cjkSet   = make(map[string]struct{}, len(cjkExitKeywords))
)

func init() {
	for _, k := range latinExitKeywords {
		latinSet[k] = struct{}{}
	}
	for _, k := range cjkExitKeywords {
		cjkSet[k] = struct{}{}
	}
}

// IsExitKeyword reports whether input is a recognized exit keyword.
// The input is expected to be whitespace-trimmed already; the Latin table is
// consulted case-insensitively, the CJK table by exact match.
func IsExitKeyword(input string) bool {
	if _, ok := latinSet[strings.ToLower(input)]; ok {
		return true
	}
	_, ok := cjkSet[input]
	return ok
}

// LatinKeywords returns the Latin exit keywords in their canonical order.
func LatinKeywords() []string {
	return slices.Clone(latinExitKeywords)
}

// CJKKeywords returns the CJK exit keywords in their canonical order.
func CJKKeywords() []string {
	return slices.Clone(cjkExitKeywords)
}

// Package lexical 处理富文本树的纯文本提取与指纹计算。
// 提取结果是向量化输入，也是判断"语义内容是否变化"的唯一依据。
package lexical

import (
	"encoding/json"
	"strings"
)

// nodeKind 节点变体。富文本树没有固定schema，
// 这里收敛为一个封闭的变体集合，未知形状一律按空文本处理。
type nodeKind int

const (
	kindUnknown nodeKind = iota
	kindText             // 带text字段的叶子
	kindElement          // 带children或content字段的元素
	kindRoot             // 带root字段的文档包装
	kindList             // 节点数组
	kindString           // 裸字符串
)

func classify(node interface{}) nodeKind {
	switch v := node.(type) {
	case string:
		return kindString
	case []interface{}:
		return kindList
	case map[string]interface{}:
		if _, ok := v["text"].(string); ok {
			return kindText
		}
		if _, ok := v["root"]; ok {
			return kindRoot
		}
		if _, ok := v["children"]; ok {
			return kindElement
		}
		if _, ok := v["content"]; ok {
			return kindElement
		}
		return kindUnknown
	default:
		// nil、数字等对文本提取无意义
		return kindUnknown
	}
}

// ExtractText 将富文本树按文档顺序还原为空格连接的纯文本。
// 纯函数，不做任何I/O；残缺或未知形状的子树归约为空串，绝不panic。
func ExtractText(node interface{}) string {
	var parts []string
	collect(node, &parts)
	return strings.Join(parts, " ")
}

func collect(node interface{}, parts *[]string) {
	switch classify(node) {
	case kindString:
		s := node.(string)
		if s != "" {
			*parts = append(*parts, s)
		}
	case kindList:
		for _, child := range node.([]interface{}) {
			collect(child, parts)
		}
	case kindText:
		obj := node.(map[string]interface{})
		if s := obj["text"].(string); s != "" {
			*parts = append(*parts, s)
		}
	case kindRoot:
		collect(node.(map[string]interface{})["root"], parts)
	case kindElement:
		obj := node.(map[string]interface{})
		if children, ok := obj["children"]; ok {
			collect(children, parts)
			return
		}
		collect(obj["content"], parts)
	case kindUnknown:
		// 归约为空
	}
}

// ExtractFromJSON 从序列化的富文本JSON提取纯文本。
// 非法JSON视为无内容。
func ExtractFromJSON(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	var node interface{}
	if err := json.Unmarshal([]byte(raw), &node); err != nil {
		return ""
	}
	return ExtractText(node)
}

package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestExtractText 测试富文本树的纯文本提取
func TestExtractText(t *testing.T) {
	// 典型的编辑器文档：root包装 + 段落children + 文本叶子
	doc := map[string]interface{}{
		"root": map[string]interface{}{
			"children": []interface{}{
				map[string]interface{}{
					"children": []interface{}{
						map[string]interface{}{"text": "Hello", "format": float64(1)},
						map[string]interface{}{"text": "world"},
					},
				},
				map[string]interface{}{
					"children": []interface{}{
						map[string]interface{}{"text": "second paragraph"},
					},
				},
			},
		},
	}

	assert.Equal(t, "Hello world second paragraph", ExtractText(doc))
}

func TestExtractText_ContentField(t *testing.T) {
	// 有些编辑器用content而不是children
	doc := map[string]interface{}{
		"content": []interface{}{
			map[string]interface{}{"text": "alpha"},
			map[string]interface{}{"content": []interface{}{
				map[string]interface{}{"text": "beta"},
			}},
		},
	}

	assert.Equal(t, "alpha beta", ExtractText(doc))
}

func TestExtractText_EdgeShapes(t *testing.T) {
	// 裸字符串
	assert.Equal(t, "plain", ExtractText("plain"))

	// 节点数组
	assert.Equal(t, "a b", ExtractText([]interface{}{"a", "b"}))

	// 空文本叶子不产生多余空格
	doc := []interface{}{
		map[string]interface{}{"text": ""},
		map[string]interface{}{"text": "x"},
	}
	assert.Equal(t, "x", ExtractText(doc))

	// 未知形状归约为空，绝不panic
	assert.Equal(t, "", ExtractText(nil))
	assert.Equal(t, "", ExtractText(float64(42)))
	assert.Equal(t, "", ExtractText(map[string]interface{}{"type": "hr"}))
}

func TestExtractFromJSON(t *testing.T) {
	raw := `{"root":{"children":[{"children":[{"text":"你好"},{"text":"世界"}]}]}}`
	assert.Equal(t, "你好 世界", ExtractFromJSON(raw))

	// 非法JSON视为无内容
	assert.Equal(t, "", ExtractFromJSON("{not json"))
	assert.Equal(t, "", ExtractFromJSON(""))
	assert.Equal(t, "", ExtractFromJSON("   "))
}

// TestHashText 测试文本指纹的确定性
func TestHashText(t *testing.T) {
	h1 := HashText("Hello world")
	h2 := HashText("Hello world")
	h3 := HashText("Hello  world")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)

	// sha256("Hello world")
	assert.Equal(t, "64ec88ca00b268e5ba1a35678a1b5316d212f4f366b2477232534a8aeca37f3c", h1)
}

package lexical

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashText 计算提取文本的指纹。
// 同一文本跨进程恒定；哈希只覆盖提取后的纯文本，
// 纯结构调整（文本相同的块重排）不会改变指纹，属预期行为。
func HashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

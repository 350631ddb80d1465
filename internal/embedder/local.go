package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// DefaultLocalDim はLocalEmbedderのデフォルト次元
const DefaultLocalDim = 64

// LocalEmbedder は外部サービスを使わない決定論的なEmbedder実装
// 単語ハッシュをバケットに畳み込むだけの簡易ベクトル化で、
// テストとオフライン動作確認に使用する。意味的な品質は保証しない
type LocalEmbedder struct {
	dim int
}

// NewLocalEmbedder は新しいLocalEmbedderを作成
func NewLocalEmbedder(dim int) *LocalEmbedder {
	if dim <= 0 {
		dim = DefaultLocalDim
	}
	return &LocalEmbedder{dim: dim}
}

// Embed はテキストを埋め込みベクトルに変換する
// 同一テキストは常に同一ベクトルになる
func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)

	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		sum := h.Sum32()
		vec[int(sum)%e.dim] += 1.0
	}

	// L2正規化（cosine類似度がドット積と一致するように）
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}

	return vec, nil
}

// Dimension は次元を返す
func (e *LocalEmbedder) Dimension() int {
	return e.dim
}

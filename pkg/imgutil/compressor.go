package imgutil

import (
	"bytes"

	imgkit "github.com/shouni/gemini-image-kit/imgutil"
)

// ShrinkReference は参照画像の送信サイズを抑えるために JPEG 圧縮を試みます。
// 圧縮に失敗した場合や元データより大きくなる場合は、元データと MIME タイプをそのまま返します。
func ShrinkReference(data []byte, mimeType string, quality int) ([]byte, string) {
	compressed, err := imgkit.CompressToJPEG(bytes.NewReader(data), quality)
	if err != nil || len(compressed) >= len(data) {
		return data, mimeType
	}
	return compressed, "image/jpeg"
}

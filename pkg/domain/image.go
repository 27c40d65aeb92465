package domain

import (
	"net/http"
	"strings"
)

// Image は生成された画像データを保持します。公開後は不変として扱います。
type Image struct {
	Data     []byte
	MimeType string
}

// NewImage は MIME タイプが空の場合にデータから推定して Image を生成します。
func NewImage(data []byte, mimeType string) *Image {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return &Image{Data: data, MimeType: mimeType}
}

// Extension は MIME タイプに応じたファイル拡張子を返します。
func (img *Image) Extension() string {
	if img == nil {
		return ".png"
	}
	switch strings.ToLower(img.MimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

// AspectRatio は生成画像の縦横比です。
type AspectRatio string

const (
	// AspectSquare はキャラクターポートレート用です。
	AspectSquare AspectRatio = "1:1"
	// AspectWidescreen はシーン画像用です。
	AspectWidescreen AspectRatio = "16:9"
)

// Reference は画像生成時に添付するキャラクター参照画像です。
type Reference struct {
	Name  string
	Image *Image
}

// RenderRequest は画像生成 1 回分の入力です。
type RenderRequest struct {
	Prompt      string
	References  []Reference
	AspectRatio AspectRatio
}

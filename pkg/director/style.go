package director

import (
	"fmt"
	"slices"
	"strings"
)

// Style は固定されたスタイルカタログのタグです。実行時に拡張することはできません。
type Style string

const (
	StyleRealistic            Style = "realistic"
	StyleCute                 Style = "cute"
	StyleWebtoon              Style = "webtoon"
	StyleFlatVector           Style = "flat_vector"
	StyleCinematic            Style = "cinematic"
	StyleAnimation3D          Style = "animation_3d"
	StyleCyberpunk            Style = "cyberpunk"
	StyleRetro90s             Style = "retro_90s"
	StyleWatercolor           Style = "watercolor"
	StyleSketch               Style = "sketch"
	StyleThickLineAnime       Style = "thick_line_anime"
	StyleSemiRealisticWebtoon Style = "semi_realistic_webtoon"

	// DefaultStyle はスタイル未指定時に使用されます。
	DefaultStyle = StyleSemiRealisticWebtoon
)

// stylePrefixes はスタイルごとのプロンプト先頭文です。
var stylePrefixes = map[Style]string{
	StyleRealistic:            "Photorealistic cinematic photography, high detail, 8k, professional lighting, natural textures, lifelike features.",
	StyleCute:                 "Chibi style art, adorable aesthetic, very large expressive eyes, big head, cute facial expressions, vibrant colors, soft lighting, 3D render feel.",
	StyleWebtoon:              "Modern Korean webtoon manhwa style, clean line art, digital cel shading, trendy character design, bright and sharp colors.",
	StyleFlatVector:           "Minimalist flat vector illustration, 2D graphic design, bold solid colors, clean geometric shapes, modern startup aesthetic.",
	StyleCinematic:            "Cinematic movie still, 35mm lens, dramatic lighting, moody atmosphere, depth of field, high-end film grain, epic composition.",
	StyleAnimation3D:          "3D animation style, Pixar and Disney inspired, high quality 3D render, subsurface scattering, soft professional studio lighting, expressive character faces.",
	StyleCyberpunk:            "Cyberpunk aesthetic, neon lights, futuristic city background, vibrant purple and blue tones, high tech details, dark moody atmosphere.",
	StyleRetro90s:             "90s retro anime style, VHS aesthetic, slight film grain, nostalgic colors, classic hand-drawn look, lo-fi vibe.",
	StyleWatercolor:           "Ethereal watercolor painting, soft pigment bleeding, artistic brush strokes, delicate textures, dreamlike atmosphere, pastel color palette.",
	StyleSketch:               "Professional pencil sketch, charcoal textures, detailed line work, artistic shading, hand-drawn on paper texture, minimalist but expressive.",
	StyleThickLineAnime:       "Modern anime illustration with extremely thick bold black outlines, prominent line art with at least 1mm visual thickness, high contrast cel shading, flat vibrant colors, sharp edges, pop art influence.",
	StyleSemiRealisticWebtoon: "High-end semi-realistic Korean webtoon style, detailed facial features with natural proportions, soft realistic lighting, clean refined line art, professional digital painting with subtle gradients, cinematic atmosphere, blend of 3D-like depth and 2D aesthetic.",
}

// styleLabels は CLI 表示用のラベルです。
var styleLabels = map[Style]string{
	StyleRealistic:            "実写",
	StyleCute:                 "ちびキャラ（顔強調）",
	StyleWebtoon:              "Kウェブトゥーン",
	StyleFlatVector:           "フラットベクター",
	StyleCinematic:            "シネマ",
	StyleAnimation3D:          "3Dアニメーション",
	StyleCyberpunk:            "ネオンサイバーパンク",
	StyleRetro90s:             "90年代レトロ",
	StyleWatercolor:           "水彩画",
	StyleSketch:               "鉛筆スケッチ",
	StyleThickLineAnime:       "太線アニメ",
	StyleSemiRealisticWebtoon: "セミリアルウェブトゥーン",
}

// ParseStyle は文字列をスタイルタグに変換します。空文字列の場合は DefaultStyle を返します。
func ParseStyle(s string) (Style, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultStyle, nil
	}
	st := Style(strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if _, ok := stylePrefixes[st]; !ok {
		return "", fmt.Errorf("不明なスタイルです: '%s'", s)
	}
	return st, nil
}

// Styles はカタログ内のスタイルをタグ順に返します。
func Styles() []Style {
	out := make([]Style, 0, len(stylePrefixes))
	for st := range stylePrefixes {
		out = append(out, st)
	}
	slices.Sort(out)
	return out
}

// Prefix はスタイルのプロンプト先頭文を返します。未知のスタイルは DefaultStyle として扱います。
func (s Style) Prefix() string {
	if p, ok := stylePrefixes[s]; ok {
		return p
	}
	return stylePrefixes[DefaultStyle]
}

// Label は表示用ラベルを返します。
func (s Style) Label() string {
	return styleLabels[s]
}

// IsPhotorealistic は実写スタイルかどうかを返します。実写のみフル品質で生成します。
func (s Style) IsPhotorealistic() bool {
	return s == StyleRealistic
}

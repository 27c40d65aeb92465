package adapters

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/imgutil"

	"golang.org/x/sync/singleflight"
	"google.golang.org/genai"
)

const cacheKeyReferencePart = "reference_part:"

// referenceCore は参照画像を genai のパーツへ変換し、同一画像の再変換を避けます。
type referenceCore struct {
	cache      ImageCacher
	expiration time.Duration
	group      singleflight.Group
	compress   bool
	quality    int
}

func newReferenceCore(cache ImageCacher, ttl time.Duration, compress bool, quality int) *referenceCore {
	return &referenceCore{
		cache:      cache,
		expiration: ttl,
		compress:   compress,
		quality:    quality,
	}
}

// part は参照画像のインラインパーツを返します。画像でないデータの場合は nil です。
func (c *referenceCore) part(img *domain.Image) *genai.Part {
	if img == nil || len(img.Data) == 0 {
		return nil
	}
	sum := sha256.Sum256(img.Data)
	key := cacheKeyReferencePart + hex.EncodeToString(sum[:])

	if c.cache != nil {
		if val, ok := c.cache.Get(key); ok {
			if p, ok := val.(*genai.Part); ok {
				return p
			}
		}
	}

	// 同じキャラクターの参照画像はチャンク内の全シーンから同時に要求されるため、変換を 1 回にまとめます。
	v, _, _ := c.group.Do(key, func() (any, error) {
		p := c.toPart(img)
		if p != nil && c.cache != nil {
			c.cache.Set(key, p, c.expiration)
		}
		return p, nil
	})
	p, _ := v.(*genai.Part)
	return p
}

func (c *referenceCore) toPart(img *domain.Image) *genai.Part {
	data, mimeType := img.Data, img.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil
	}
	if c.compress {
		data, mimeType = imgutil.ShrinkReference(data, mimeType, c.quality)
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
}

// parseImageResponse は応答の最初の候補からインライン画像を取り出します。
func parseImageResponse(resp *genai.GenerateContentResponse) (*domain.Image, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: 応答に候補が含まれていません", ErrRenderFailure)
	}

	candidate := resp.Candidates[0]
	switch candidate.FinishReason {
	case "", genai.FinishReasonUnspecified, genai.FinishReasonStop:
	default:
		return nil, fmt.Errorf("%w: 画像生成が異常終了しました (FinishReason: %s)", ErrRenderFailure, candidate.FinishReason)
	}

	if candidate.Content == nil {
		return nil, fmt.Errorf("%w: 応答にコンテンツが含まれていません", ErrRenderFailure)
	}
	for _, part := range candidate.Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return domain.NewImage(part.InlineData.Data, part.InlineData.MIMEType), nil
		}
	}
	return nil, fmt.Errorf("%w: 応答に画像データが含まれていません", ErrRenderFailure)
}

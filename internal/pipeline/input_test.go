package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type mockFetcher struct {
	fetchFunc func(ctx context.Context, url string) ([]byte, error)
}

func (m *mockFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	return m.fetchFunc(ctx, url)
}

type mockOpener struct {
	files map[string][]byte
}

func (m *mockOpener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, errors.New("not found: " + path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestSources_ReadScript(t *testing.T) {
	src := sources{
		http: &mockFetcher{fetchFunc: func(ctx context.Context, url string) ([]byte, error) {
			return []byte("from url"), nil
		}},
		reader: &mockOpener{files: map[string][]byte{"story.txt": []byte("from file")}},
		stdin:  strings.NewReader("from stdin"),
	}
	ctx := context.Background()

	t.Run("URLが最優先なのだ", func(t *testing.T) {
		got, err := src.readScript(ctx, "https://example.com/story", "story.txt")
		require.NoError(t, err)
		assert.Equal(t, "from url", got)
	})

	t.Run("ファイルを読み込めるのだ", func(t *testing.T) {
		got, err := src.readScript(ctx, "", "story.txt")
		require.NoError(t, err)
		assert.Equal(t, "from file", got)
	})

	t.Run("'-' は標準入力なのだ", func(t *testing.T) {
		got, err := src.readScript(ctx, "", "-")
		require.NoError(t, err)
		assert.Equal(t, "from stdin", got)
	})

	t.Run("入力元が無ければエラーなのだ", func(t *testing.T) {
		_, err := sources{}.readScript(ctx, "", "")
		assert.Error(t, err)
	})
}

func TestSources_LoadCharacters(t *testing.T) {
	src := sources{
		http: &mockFetcher{fetchFunc: func(ctx context.Context, url string) ([]byte, error) {
			return pngHeader, nil
		}},
		reader: &mockOpener{files: map[string][]byte{
			"chars.json": []byte(`[
				{"name":"Minji","age":"24","gender":"female","appearance":"bob cut","reference_image":"output/character_1.png"},
				{"name":"Jun","reference_image":"https://example.com/jun.png"},
				{"name":"Sora","reference_image":"missing.png"},
				{"name":"Hana"}
			]`),
			"output/character_1.png": pngHeader,
		}},
	}

	chars, err := src.loadCharacters(context.Background(), "chars.json")
	require.NoError(t, err)
	require.Len(t, chars, 4)

	assert.Equal(t, "bob cut", chars[0].Appearance)
	require.True(t, chars[0].HasReference())
	assert.Equal(t, "image/png", chars[0].ReferenceImage.MimeType)
	assert.True(t, chars[1].HasReference(), "URLの参照画像も取得できるのだ")
	assert.False(t, chars[2].HasReference(), "読めない参照画像は未設定のままなのだ")
	assert.False(t, chars[3].HasReference())
}

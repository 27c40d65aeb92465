package publisher

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/shouni/go-storyboard-kit/pkg/domain"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	mu    sync.Mutex
	files map[string][]byte
	types map[string]string
}

func newMockWriter() *mockWriter {
	return &mockWriter{files: map[string][]byte{}, types: map[string]string{}}
}

func (m *mockWriter) Write(ctx context.Context, path string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = data
	m.types[path] = contentType
	return nil
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		out[f.Name] = b
	}
	return out
}

func TestArchivePublisher_Publish(t *testing.T) {
	t.Run("完了済みのシーンだけがシーン位置の名前で格納されること", func(t *testing.T) {
		w := newMockWriter()
		p := NewArchivePublisher(w)
		items := []domain.StoryboardItem{
			{Status: domain.StatusCompleted, Image: &domain.Image{Data: []byte("A"), MimeType: "image/png"}},
			{Status: domain.StatusFailed},
			{Status: domain.StatusCompleted, Image: &domain.Image{Data: []byte("B"), MimeType: "image/jpeg"}},
			{Status: domain.StatusPending},
		}

		res, err := p.Publish(context.Background(), items, "out/storyboard_package.zip")
		require.NoError(t, err)
		assert.Equal(t, []string{"scene_1.png", "scene_3.jpg"}, res.Entries)
		assert.Equal(t, "application/zip", w.types["out/storyboard_package.zip"])

		files := readArchive(t, w.files["out/storyboard_package.zip"])
		require.Len(t, files, 2)
		assert.Equal(t, []byte("A"), files["scene_1.png"])
		assert.Equal(t, []byte("B"), files["scene_3.jpg"])
	})

	t.Run("完了済みが無い場合は何も書き込まないこと", func(t *testing.T) {
		w := newMockWriter()
		p := NewArchivePublisher(w)

		_, err := p.Publish(context.Background(), []domain.StoryboardItem{{Status: domain.StatusFailed}}, "out.zip")
		assert.ErrorIs(t, err, ErrNothingToExport)
		assert.Empty(t, w.files)
	})
}

func TestArchivePublisher_SaveCharacters(t *testing.T) {
	w := newMockWriter()
	p := NewArchivePublisher(w)
	chars := []domain.Character{
		{Name: "Minji", ReferenceImage: &domain.Image{Data: []byte("m"), MimeType: "image/png"}},
		{Name: "Jun"},
	}

	paths, err := p.SaveCharacters(context.Background(), chars, "out")
	require.NoError(t, err)
	assert.Equal(t, []string{"out/character_1.png", "out/characters.json"}, paths)

	records, err := domain.ParseCharacterRecords(w.files["out/characters.json"])
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "out/character_1.png", records[0].ReferenceImage)
	assert.Equal(t, "Jun", records[1].Name)
	assert.Empty(t, records[1].ReferenceImage)
}

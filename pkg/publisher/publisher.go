package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"

	"github.com/klauspost/compress/zip"
)

// ErrNothingToExport は完了したシーンが 1 つもない場合に返されます。
var ErrNothingToExport = errors.New("書き出せる完了済みのシーンがありません")

// OutputWriter は成果物の保存先です。remoteio.OutputWriter がこれを満たします。
type OutputWriter interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	ArchivePath string   // 生成された zip のパス
	Entries     []string // アーカイブ内のファイル名（シーン順）
}

// ArchivePublisher は完了済みのシーン画像を 1 つの zip にまとめて保存します。
type ArchivePublisher struct {
	writer OutputWriter
	now    func() time.Time
}

// NewArchivePublisher は ArchivePublisher を生成します。
func NewArchivePublisher(writer OutputWriter) *ArchivePublisher {
	return &ArchivePublisher{writer: writer, now: time.Now}
}

// Publish は Completed のアイテムだけを scene_<位置>.<拡張子> としてアーカイブし、outputPath に保存します。
// 完了済みのアイテムが無い場合は何も書き込まずに ErrNothingToExport を返します。
func (p *ArchivePublisher) Publish(ctx context.Context, items []domain.StoryboardItem, outputPath string) (PublishResult, error) {
	data, entries, err := p.BuildArchive(items)
	if err != nil {
		return PublishResult{}, err
	}

	if err := p.writer.Write(ctx, outputPath, bytes.NewReader(data), "application/zip"); err != nil {
		return PublishResult{}, fmt.Errorf("アーカイブの書き込みに失敗しました: %w", err)
	}
	slog.InfoContext(ctx, "ストーリーボードを書き出しました", "path", outputPath, "files", len(entries))
	return PublishResult{ArchivePath: outputPath, Entries: entries}, nil
}

// BuildArchive は zip のバイト列とエントリ名を返します。
func (p *ArchivePublisher) BuildArchive(items []domain.StoryboardItem) ([]byte, []string, error) {
	completed := domain.CompletedItems(items)
	if len(completed) == 0 {
		return nil, nil, ErrNothingToExport
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	entries := make([]string, 0, len(completed))
	for _, c := range completed {
		name, err := asset.SceneFileName(c.Position, c.Item.Image.Extension())
		if err != nil {
			return nil, nil, err
		}
		// 画像は圧縮済みのため無圧縮で格納します。
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store, Modified: p.now()})
		if err != nil {
			return nil, nil, fmt.Errorf("アーカイブエントリの作成に失敗しました %s: %w", name, err)
		}
		if _, err := w.Write(c.Item.Image.Data); err != nil {
			return nil, nil, fmt.Errorf("アーカイブへの書き込みに失敗しました %s: %w", name, err)
		}
		entries = append(entries, name)
	}
	if err := zw.Close(); err != nil {
		return nil, nil, fmt.Errorf("アーカイブの確定に失敗しました: %w", err)
	}
	return buf.Bytes(), entries, nil
}

// SaveCharacters は参照ポートレートを character_<n>.<拡張子> として保存し、
// 保存先パスを reference_image に記録したキャラクター一覧 JSON を outputDir に書き込みます。
func (p *ArchivePublisher) SaveCharacters(ctx context.Context, chars []domain.Character, outputDir string) ([]string, error) {
	var paths []string
	records := make([]domain.CharacterRecord, len(chars))

	for i, c := range chars {
		records[i].Character = c
		if !c.HasReference() {
			continue
		}
		name, err := asset.CharacterFileName(i+1, c.ReferenceImage.Extension())
		if err != nil {
			return paths, err
		}
		fullPath, err := asset.ResolveOutputPath(outputDir, name)
		if err != nil {
			return paths, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
		}
		if err := p.writer.Write(ctx, fullPath, bytes.NewReader(c.ReferenceImage.Data), c.ReferenceImage.MimeType); err != nil {
			return paths, fmt.Errorf("画像の書き込みに失敗しました %s: %w", fullPath, err)
		}
		records[i].ReferenceImage = fullPath
		paths = append(paths, fullPath)
	}

	jsonPath, err := asset.ResolveOutputPath(outputDir, asset.DefaultCharactersJSON)
	if err != nil {
		return paths, err
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return paths, fmt.Errorf("キャラクター一覧のエンコードに失敗しました: %w", err)
	}
	if err := p.writer.Write(ctx, jsonPath, bytes.NewReader(data), "application/json; charset=utf-8"); err != nil {
		return paths, fmt.Errorf("キャラクター一覧の書き込みに失敗しました: %w", err)
	}
	slog.InfoContext(ctx, "キャラクター一覧を保存しました", "path", jsonPath, "portraits", len(paths))
	return append(paths, jsonPath), nil
}

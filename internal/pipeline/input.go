package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// fetcher は httpkit.Requester のうち、URL からの取得に使う部分なのだ。
type fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// opener は remoteio.InputReader のうち、ファイルを開く部分なのだ。ローカルパスと gs:// を扱えるのだ。
type opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// sources は入力の取得元をまとめたものなのだ。
type sources struct {
	http   fetcher
	reader opener
	stdin  io.Reader
}

// readScript は --script-url、--script-file、標準入力の順に台本を探して読み込むのだ。
func (s sources) readScript(ctx context.Context, scriptURL, scriptFile string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case scriptURL != "":
		slog.InfoContext(ctx, "URLから台本を取得するのだ", "url", scriptURL)
		data, err = s.http.FetchBytes(ctx, scriptURL)
	case scriptFile != "" && scriptFile != "-":
		data, err = s.readAll(ctx, scriptFile)
	case s.stdin != nil:
		data, err = io.ReadAll(s.stdin)
	default:
		return "", fmt.Errorf("台本の入力元が指定されていないのだ")
	}
	if err != nil {
		return "", fmt.Errorf("台本の読み込みに失敗したのだ: %w", err)
	}
	return string(data), nil
}

// loadCharacters はキャラクター JSON を読み込み、reference_image があれば参照画像も取得するのだ。
func (s sources) loadCharacters(ctx context.Context, path string) ([]domain.Character, error) {
	data, err := s.readAll(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("キャラクター設定 '%s' の読み込みに失敗したのだ: %w", path, err)
	}
	records, err := domain.ParseCharacterRecords(data)
	if err != nil {
		return nil, err
	}

	chars := make([]domain.Character, len(records))
	for i, r := range records {
		chars[i] = r.Character
		if r.ReferenceImage == "" {
			continue
		}
		img, err := s.loadImage(ctx, r.ReferenceImage)
		if err != nil {
			// 参照画像が読めなくても、後で生成し直せば済むのだ
			slog.WarnContext(ctx, "参照画像を読み込めなかったので未設定のまま続行するのだ",
				"name", r.Name, "path", r.ReferenceImage, "error", err)
			continue
		}
		chars[i].ReferenceImage = img
	}
	return chars, nil
}

func (s sources) loadImage(ctx context.Context, location string) (*domain.Image, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		data, err = s.http.FetchBytes(ctx, location)
	} else {
		data, err = s.readAll(ctx, location)
	}
	if err != nil {
		return nil, err
	}
	img := domain.NewImage(data, "")
	if !strings.HasPrefix(img.MimeType, "image/") {
		return nil, fmt.Errorf("画像ではないデータなのだ: %s", img.MimeType)
	}
	return img, nil
}

func (s sources) readAll(ctx context.Context, path string) ([]byte, error) {
	rc, err := s.reader.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

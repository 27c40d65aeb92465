package asset

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultArchiveName はシーン画像をまとめたアーカイブのデフォルトファイル名です。
	DefaultArchiveName = "storyboard_package.zip"
	// DefaultCharactersJSON は抽出したキャラクター一覧のデフォルト JSON ファイル名です。
	DefaultCharactersJSON = "characters.json"
	// DefaultSceneFileName はシーン画像の共通のベースファイル名です。
	DefaultSceneFileName = "scene.png"
	// DefaultCharacterFileName は参照ポートレートの共通のベースファイル名です。
	DefaultCharacterFileName = "character.png"
)

var (
	// SceneFileRegex はシーン画像 (scene_1.png, scene_3.jpg 等) に一致します
	SceneFileRegex = createIndexedRegex("scene")
	// CharacterFileRegex は参照ポートレート (character_1.png 等) に一致します
	CharacterFileRegex = createIndexedRegex("character")
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolvePath(baseDir, fileName)
}

// GenerateIndexedPath は、指定されたベースパスの拡張子の前に連番を挿入します。
// 例: "path/to/image.png", 1 -> "path/to/image_1.png"
func GenerateIndexedPath(basePath string, index int) (string, error) {
	return urlpath.GenerateIndexedPath(basePath, index)
}

// SceneFileName は 1 始まりのシーン位置と拡張子からアーカイブ内のファイル名を返します。
// 例: 3, ".jpg" -> "scene_3.jpg"
func SceneFileName(position int, ext string) (string, error) {
	return indexedName(DefaultSceneFileName, position, ext)
}

// CharacterFileName は 1 始まりのキャラクター位置と拡張子から参照ポートレートのファイル名を返します。
func CharacterFileName(position int, ext string) (string, error) {
	return indexedName(DefaultCharacterFileName, position, ext)
}

func indexedName(base string, position int, ext string) (string, error) {
	if position < 1 {
		return "", fmt.Errorf("位置は1以上である必要があります: %d", position)
	}
	name, err := GenerateIndexedPath(base, position)
	if err != nil {
		return "", err
	}
	if ext != "" {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ext
	}
	return name, nil
}

// createIndexedRegex は、ベース名に基づきインデックス付きファイル用の正規表現を生成します。
// 例: "scene" -> ^scene_\d+\.[a-z]+$
func createIndexedRegex(baseName string) *regexp.Regexp {
	pattern := fmt.Sprintf(`^%s_\d+\.[a-z]+$`, regexp.QuoteMeta(baseName))
	return regexp.MustCompile(pattern)
}

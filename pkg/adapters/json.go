package adapters

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// decodeJSON はモデル応答から JSON オブジェクトを取り出して v にデコードします。
// コードフェンス、前後の説明文、フェンスなしの素の JSON のいずれにも対応します。
func decodeJSON(raw string, v any) error {
	raw = strings.TrimSpace(raw)
	var rawJSON string

	if matches := jsonBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		rawJSON = matches[1]
	} else {
		first := strings.Index(raw, "{")
		last := strings.LastIndex(raw, "}")
		if first != -1 && last > first {
			rawJSON = raw[first : last+1]
		} else {
			rawJSON = raw
		}
	}

	if err := json.Unmarshal([]byte(rawJSON), v); err != nil {
		return fmt.Errorf("AIからの応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}
	return nil
}

// truncateString は s を最大 maxLen 文字（rune 単位）に切り詰めます。
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

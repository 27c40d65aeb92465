package generator

import "github.com/shouni/go-storyboard-kit/pkg/domain"

// Observer はアイテム一覧が変化するたびに、その時点の一貫したスナップショットを受け取ります。
// 呼び出しは直列化されます。Observer の中から同じ Storyboard の変更操作を同期的に呼んではいけません。
type Observer func(items []domain.StoryboardItem)

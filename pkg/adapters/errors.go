package adapters

import "errors"

var (
	// ErrExtractionFailure はキャラクター抽出の応答が期待する構造として解析できない場合に返されます。
	// 呼び出し側は「キャラクター 0 人」として扱います。
	ErrExtractionFailure = errors.New("キャラクター抽出に失敗しました")
	// ErrPlanningFailure はシーン分割の応答が期待する構造として解析できない場合に返されます。
	ErrPlanningFailure = errors.New("シーン分割に失敗しました")
	// ErrRenderFailure は応答に画像データが含まれない場合に返されます。
	ErrRenderFailure = errors.New("画像生成に失敗しました")
)

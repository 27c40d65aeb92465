package generator

import "errors"

var (
	// ErrReferencesMissing は参照画像のないキャラクターがいるためバッチを開始できない場合に返されます。
	ErrReferencesMissing = errors.New("すべてのキャラクターの参照画像を先に生成してください")
	// ErrNoScenes はシーン分割の結果が空だった場合に返されます。
	ErrNoScenes = errors.New("シーン分割の結果が空でした")
	// ErrBatchRunning は前のバッチが実行中のため新しいバッチを開始できない場合に返されます。
	ErrBatchRunning = errors.New("ストーリーボード生成が実行中です")
	// ErrItemNotFound は再生成対象のアイテムが存在しない場合に返されます。
	ErrItemNotFound = errors.New("対象のシーンが見つかりません")
	// ErrItemBusy は再生成対象のアイテムが生成中、または実行中バッチの待機中の場合に返されます。
	ErrItemBusy = errors.New("対象のシーンは処理中です")
)

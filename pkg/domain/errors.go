package domain

import "errors"

var (
	// ErrIndexOutOfRange はキャラクターやアイテムのインデックスが範囲外の場合に返されます。
	ErrIndexOutOfRange = errors.New("インデックスが範囲外です")
	// ErrInvalidTransition は許可されていないステータス遷移の場合に返されます。
	ErrInvalidTransition = errors.New("許可されていないステータス遷移です")
	// ErrCastChanged はスナップショットを取った後にキャスト全体が置き換えられた場合に返されます。
	ErrCastChanged = errors.New("キャストが置き換えられました")
)

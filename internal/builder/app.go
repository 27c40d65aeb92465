package builder

import (
	"github.com/shouni/go-storyboard-kit/internal/config"
	libcfg "github.com/shouni/go-storyboard-kit/pkg/config"
	"github.com/shouni/go-storyboard-kit/pkg/workflow"

	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持するのだ。
// これを各パイプラインに渡すことで、依存関係の注入を簡素化するのだ。
type AppContext struct {
	Config     *config.Config         // 環境変数から読み込まれた設定（APIキー、モデル名など）なのだ
	Options    config.GenerateOptions // コマンドラインから渡された実行時の設定なのだ
	Library    libcfg.Config          // Manager に渡した生成設定なのだ
	Reader     remoteio.InputReader   // 台本やキャラクター JSON の読み込みに使う入力元なのだ
	Writer     remoteio.OutputWriter  // 成果物を保存するための出力先なのだ
	HTTPClient httpkit.Requester      // --script-url や参照画像 URL の取得に使うのだ
	Manager    *workflow.Manager      // 解析から書き出しまでを束ねるセッションなのだ

	ioFactory remoteio.IOFactory
}

// Close は GCS クライアントを解放するのだ。
func (a *AppContext) Close() error {
	if a.ioFactory == nil {
		return nil
	}
	return a.ioFactory.Close()
}

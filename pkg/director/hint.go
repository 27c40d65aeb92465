package director

const (
	portraitSpeedHint = "[SYSTEM_OPTIMIZATION: Generate in low-resolution 0.25K quality, simplified draft rendering for maximum speed]"
	sceneSpeedHint    = "[SPEED_PRIORITY: Generate at 0.25K low resolution, simplified textures, fastest processing mode]"
)

// PortraitSpeedHint はポートレート生成用の速度優先ヒントを返します。実写スタイルでは空です。
func PortraitSpeedHint(s Style) string {
	if s.IsPhotorealistic() {
		return ""
	}
	return portraitSpeedHint
}

// SceneSpeedHint はシーン生成用の速度優先ヒントを返します。実写スタイルでは空です。
func SceneSpeedHint(s Style) string {
	if s.IsPhotorealistic() {
		return ""
	}
	return sceneSpeedHint
}

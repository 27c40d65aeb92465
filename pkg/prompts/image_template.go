package prompts

import (
	"fmt"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const (
	// globalConstraintsFormat はすべての画像プロンプトの末尾に付与する制約です。
	globalConstraintsFormat = "Strictly use modern Korean faces and modern casual clothing. " +
		"DO NOT use Hanbok or traditional Korean clothes unless specifically mentioned as a wedding or funeral. " +
		"DO NOT include any Korean text or characters in the image unless specifically required by the script. " +
		"Aspect ratio is %s."

	// portraitTemplate はキャラクター参照ポートレートの本文です。
	portraitTemplate = "A professional character concept art portrait of %s, a %s year old %s. Physical traits: %s. " +
		"Front facing, neutral background, centered, full face visible."

	// sceneInstruction はシーン画像で参照画像との一致を求める指示です。
	sceneInstruction = "INSTRUCTION: Use the provided character portrait images as strict visual references for their appearance, age, gender, and features. " +
		"Ensure characters in this scene look exactly like the reference images provided."

	// referenceBindingTemplate は参照画像とキャラクター名を結びつける説明文です。
	referenceBindingTemplate = "The next image is the visual reference for the character: %s. " +
		"Maintain strict visual consistency for this character in the scene below."
)

// GlobalConstraints は指定アスペクト比を含む共通制約を返します。
func GlobalConstraints(ratio domain.AspectRatio) string {
	return fmt.Sprintf(globalConstraintsFormat, ratio)
}

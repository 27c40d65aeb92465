package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Character はストーリーボードに登場するキャラクターの定義を保持します。
// ReferenceImage が nil の場合、参照画像は未生成です。
type Character struct {
	Name       string `json:"name"`
	Age        string `json:"age"`
	Gender     string `json:"gender"`
	Appearance string `json:"appearance"`

	// ReferenceImage はシーン生成時に外見を固定するためのポートレートです。
	ReferenceImage *Image `json:"-"`
}

// CharacterField は Registry.Update で書き換え可能なフィールドを表します。
type CharacterField string

const (
	FieldName       CharacterField = "name"
	FieldAge        CharacterField = "age"
	FieldGender     CharacterField = "gender"
	FieldAppearance CharacterField = "appearance"
)

// HasReference は参照画像が設定済みかどうかを返します。
func (c Character) HasReference() bool {
	return c.ReferenceImage != nil && len(c.ReferenceImage.Data) > 0
}

// Context はシーン分割プロンプトに注入する一行の説明を返します。
// 例: "Minji (24 female): short black hair, round glasses"
func (c Character) Context() string {
	return fmt.Sprintf("%s (%s %s): %s", c.Name, c.Age, c.Gender, c.Appearance)
}

// String はキャラクターの情報を文字列で返します。
func (c Character) String() string {
	return fmt.Sprintf("%s (%s, %s)", c.Name, c.Age, c.Gender)
}

// set は指定フィールドを置き換えたコピーを返します。
func (c Character) set(field CharacterField, value string) (Character, error) {
	switch field {
	case FieldName:
		c.Name = value
	case FieldAge:
		c.Age = value
	case FieldGender:
		c.Gender = value
	case FieldAppearance:
		c.Appearance = value
	default:
		return c, fmt.Errorf("不明なフィールドです: '%s'", field)
	}
	return c, nil
}

// ParseCharacterField は文字列をフィールド名に変換します。
func ParseCharacterField(s string) (CharacterField, error) {
	f := CharacterField(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FieldName, FieldAge, FieldGender, FieldAppearance:
		return f, nil
	}
	return "", fmt.Errorf("不明なフィールドです: '%s'", s)
}

// CharacterRecord はキャラクター一覧 JSON の 1 要素です。
// ReferenceImage には保存済みの参照ポートレートのパスまたは URL が入ります。
type CharacterRecord struct {
	Character
	ReferenceImage string `json:"reference_image,omitempty"`
}

// ParseCharacters は JSON 配列、または {"characters": [...]} 形式のバイト列をパースします。
func ParseCharacters(data []byte) ([]Character, error) {
	records, err := ParseCharacterRecords(data)
	if err != nil {
		return nil, err
	}
	chars := make([]Character, len(records))
	for i, r := range records {
		chars[i] = r.Character
	}
	return chars, nil
}

// ParseCharacterRecords は参照画像のパスを含むキャラクター一覧をパースします。
func ParseCharacterRecords(data []byte) ([]CharacterRecord, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var records []CharacterRecord
		if err := json.Unmarshal([]byte(trimmed), &records); err != nil {
			return nil, fmt.Errorf("キャラクター設定のデコードに失敗しました: %w", err)
		}
		return records, nil
	}

	var envelope struct {
		Characters []CharacterRecord `json:"characters"`
	}
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		return nil, fmt.Errorf("キャラクター設定のデコードに失敗しました: %w", err)
	}
	return envelope.Characters, nil
}

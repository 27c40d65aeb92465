package domain

import (
	"fmt"
	"slices"
	"sync"
)

// Registry は抽出・編集されたキャストと参照画像を保持します。
// 更新はすべて「現在の一覧を読み、インデックス i を置き換えた新しい一覧を公開する」形で行います。
// SetAll のたびに世代が進み、古い世代に対する参照画像の書き込みは拒否されます。
type Registry struct {
	mu    sync.RWMutex
	chars []Character
	gen   uint64
}

// NewRegistry は空の Registry を生成します。
func NewRegistry() *Registry {
	return &Registry{}
}

// SetAll はキャスト全体を置き換えます。
func (r *Registry) SetAll(chars []Character) {
	next := slices.Clone(chars)
	r.mu.Lock()
	r.chars = next
	r.gen++
	r.mu.Unlock()
}

// Update は指定インデックスのフィールドを置き換えます。
func (r *Registry) Update(index int, field CharacterField, value string) error {
	return r.replace(index, func(c Character) (Character, error) {
		return c.set(field, value)
	})
}

// SetReferenceImage は参照画像を設定します。img が nil の場合は未設定に戻します。
func (r *Registry) SetReferenceImage(index int, img *Image) error {
	return r.replace(index, func(c Character) (Character, error) {
		c.ReferenceImage = img
		return c, nil
	})
}

// SetReferenceImageAt は、キャストが世代 gen のままである場合に限り参照画像を設定します。
// SetAll で置き換えられていた場合は ErrCastChanged を返し、何も書き込みません。
func (r *Registry) SetReferenceImageAt(gen uint64, index int, img *Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return fmt.Errorf("%w: character %d", ErrCastChanged, index)
	}
	return r.replaceLocked(index, func(c Character) (Character, error) {
		c.ReferenceImage = img
		return c, nil
	})
}

// IsFinalized はすべてのキャラクターが参照画像を持つ場合に true を返します。
func (r *Registry) IsFinalized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.chars {
		if !c.HasReference() {
			return false
		}
	}
	return true
}

// Characters は現在のキャストのスナップショットを返します。
func (r *Registry) Characters() []Character {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.chars)
}

// Snapshot はキャストのスナップショットと、その世代を返します。
func (r *Registry) Snapshot() ([]Character, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.chars), r.gen
}

// Character は指定インデックスのキャラクターを返します。
func (r *Registry) Character(index int) (Character, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.chars) {
		return Character{}, fmt.Errorf("%w: character %d (len=%d)", ErrIndexOutOfRange, index, len(r.chars))
	}
	return r.chars[index], nil
}

// Len はキャラクター数を返します。
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chars)
}

// References は参照画像を持つキャラクターを登録順に返します。
func (r *Registry) References() []Reference {
	r.mu.RLock()
	defer r.mu.RUnlock()
	refs := make([]Reference, 0, len(r.chars))
	for _, c := range r.chars {
		if c.HasReference() {
			refs = append(refs, Reference{Name: c.Name, Image: c.ReferenceImage})
		}
	}
	return refs
}

func (r *Registry) replace(index int, fn func(Character) (Character, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replaceLocked(index, fn)
}

func (r *Registry) replaceLocked(index int, fn func(Character) (Character, error)) error {
	if index < 0 || index >= len(r.chars) {
		return fmt.Errorf("%w: character %d (len=%d)", ErrIndexOutOfRange, index, len(r.chars))
	}
	updated, err := fn(r.chars[index])
	if err != nil {
		return err
	}
	next := slices.Clone(r.chars)
	next[index] = updated
	r.chars = next
	return nil
}

package repository

import "errors"

var (
	// 見つからない（全repo共通）
	ErrNotFound = errors.New("record not found")

	// 一意制約違反（email/NISN/NIPなど）
	ErrConflict = errors.New("unique constraint violation")

	// 条件付き更新で0件。別リクエストが先に状態を変えた。
	ErrStateChanged = errors.New("state changed concurrently")
)

// ページング（共通）
type Page struct {
	Limit  int
	Offset int
}

// limitを1..maxに丸める。0以下はdef。
func (p Page) Normalize(def, max int) Page {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

package model

import "strings"

// User はバックエンドが管理するユーザーの部分情報を表す。
// 表示名の解決にのみ使用する。
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName は「名 姓」形式の表示名を返す。
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Claims はトークンのペイロードをデコードしたクレームの集合。
// 署名検証を行っていないため、UI表示の判定にのみ使用する。
type Claims map[string]any

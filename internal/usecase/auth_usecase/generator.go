package auth

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// 紛らわしい文字（I, O, l, 0, 1）は入れない
const PasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789!@#$%"

const (
	ApprovalPasswordLength = 12
	AdminPasswordLength    = 16
)

// GeneratePasswordは承認時/管理者作成時の初期パスワードを作る（crypto/randベース）
func GeneratePassword(length int) (string, error) {
	if length < ApprovalPasswordLength {
		return "", fmt.Errorf("password length must be >= %d", ApprovalPasswordLength)
	}
	return gonanoid.Generate(PasswordAlphabet, length)
}

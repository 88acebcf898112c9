package utils

import "golang.org/x/crypto/bcrypt"

// BcryptHasher user.PasswordHasher 的 bcrypt 实现；Cost 为 0 时取默认值
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Encode(raw string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (BcryptHasher) Matches(raw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(raw)) == nil
}

package user

import (
	"encoding/base64"
	"fmt"
	"strings"

	"portal/pkg/common"
)

const hashPrefix = "argon2id$"

// User is a registered identity. Password holds the salted argon2 hash
// and never leaves this package in a Public projection.
type User struct {
	Id       string   `json:"id"`
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Password PassHash `json:"password"`
	IsAdmin  bool     `json:"isAdmin"`
}

// Public is the projection handed to sessions and admin listings.
type Public struct {
	Id       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

func (u *User) Public() *Public {
	return &Public{
		Id:       u.Id,
		Email:    u.Email,
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
	}
}

// PassHash is a common.HashPass result, stored as "argon2id$<base64>".
// A value without the prefix is a clear-text password from an older
// snapshot and is hashed while decoding.
type PassHash []byte

func (h PassHash) MarshalText() ([]byte, error) {
	return []byte(hashPrefix + base64.StdEncoding.EncodeToString(h)), nil
}

func (h *PassHash) UnmarshalText(text []byte) error {
	s := string(text)
	switch {
	case s == "":
		*h = nil
	case strings.HasPrefix(s, hashPrefix):
		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, hashPrefix))
		if err != nil {
			return fmt.Errorf("user: bad password hash: %w", err)
		}
		*h = raw
	default:
		*h = common.HashPass(s, common.RandStringRunes(common.SaltLen))
	}
	return nil
}

// isClearText reports whether a raw snapshot password value predates hashing.
func isClearText(raw string) bool {
	return raw != "" && !strings.HasPrefix(raw, hashPrefix)
}

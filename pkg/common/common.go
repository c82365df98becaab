package common

import (
	"crypto/subtle"
	"math/rand"

	"golang.org/x/crypto/argon2"
)

const SaltLen = 8

var letterRunes = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

func RandStringRunes(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letterRunes[rand.Intn(len(letterRunes))]
	}
	return string(b)
}

// HashPass returns salt followed by the argon2id key of the password.
// Salt must have len of SaltLen.
func HashPass(plainPassword, salt string) []byte {
	hashedPass := argon2.IDKey([]byte(plainPassword), []byte(salt), 1, 64*1024, 4, 32)
	res := []byte(salt)
	return append(res, hashedPass...)
}

// CheckPass reports whether plainPassword matches a hash made by HashPass.
func CheckPass(hashed []byte, plainPassword string) bool {
	if len(hashed) <= SaltLen {
		return false
	}
	salt := string(hashed[:SaltLen])
	return subtle.ConstantTimeCompare(HashPass(plainPassword, salt), hashed) == 1
}

// SecretEqual compares two clear-text secrets in constant time.
func SecretEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

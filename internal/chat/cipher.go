package chat

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"fmt"
)

// Cipher is the confidentiality boundary for stored chat messages.
// AES-256-CBC with a fixed key/IV pair so ciphertext already in the
// database stays readable across restarts.
type Cipher struct {
	block cipher.Block
	iv    []byte
}

func NewCipher(key, iv []byte) (*Cipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("chat cipher key must be 32 bytes, got %d", len(key))
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("chat cipher iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &Cipher{block: block, iv: iv}, nil
}

// Encode encrypts the plaintext and returns hex ciphertext.
func (c *Cipher) Encode(plaintext string) string {
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)
	return hex.EncodeToString(out)
}

// Decode decrypts hex ciphertext back to plaintext. It never fails
// outward: values that are not valid ciphertext (legacy plain text
// rows, truncated hex) come back unchanged.
func (c *Cipher) Decode(stored string) string {
	raw, err := hex.DecodeString(stored)
	if err != nil || len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return stored
	}
	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, raw)
	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return stored
	}
	return string(plain)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("bad padded length %d", len(data))
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("bad padding byte %d", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return data[:len(data)-n], nil
}

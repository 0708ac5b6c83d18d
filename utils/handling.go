package utils

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/hmac"
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/net/html"
)

func Md5Hash(data string) string {
	hash := md5.New()
	hash.Write([]byte(data))
	return hex.EncodeToString(hash.Sum(nil))
}

func HmacSha256Hex(key, data string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// * DES (field cipher)

// DESPadding appends a full block of zeros and cuts back to a block multiple.
// A value that is already block aligned keeps one extra all-zero block.
func DESPadding(data []byte) []byte {
	padded := append(append([]byte{}, data...), make([]byte, des.BlockSize)...)
	return padded[:len(padded)/des.BlockSize*des.BlockSize]
}

func EncryptDESECB(plainText []byte, key string) ([]byte, error) {
	block, err := des.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create DES cipher: %w", err)
	}

	data := DESPadding(plainText)
	cipherText := make([]byte, len(data))
	for i := 0; i < len(data); i += des.BlockSize {
		block.Encrypt(cipherText[i:i+des.BlockSize], data[i:i+des.BlockSize])
	}
	return cipherText, nil
}

func DecryptDESECB(cipherText []byte, key string) ([]byte, error) {
	block, err := des.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create DES cipher: %w", err)
	}
	if len(cipherText)%des.BlockSize != 0 {
		return nil, errors.New("ciphertext is not a multiple of the DES block size")
	}

	plainText := make([]byte, len(cipherText))
	for i := 0; i < len(cipherText); i += des.BlockSize {
		block.Decrypt(plainText[i:i+des.BlockSize], cipherText[i:i+des.BlockSize])
	}
	return bytes.TrimRight(plainText, "\x00"), nil
}

// EncryptDESField is the per-field transform: DES-ECB then standard base64.
func EncryptDESField(value, key string) (string, error) {
	cipherText, err := EncryptDESECB([]byte(value), key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(cipherText), nil
}

// * AES (outer envelope)

// ZeroPadding pads to the next block boundary with zero bytes. Aligned input is left as is.
func ZeroPadding(data []byte, blockSize int) []byte {
	if len(data)%blockSize == 0 {
		return data
	}
	padding := blockSize - (len(data) % blockSize)
	return append(data, bytes.Repeat([]byte{0}, padding)...)
}

func EncryptAESCBC(plainText, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, errors.New("invalid IV length")
	}

	paddedText := ZeroPadding(append([]byte{}, plainText...), aes.BlockSize)
	mode := cipher.NewCBCEncrypter(block, iv)

	cipherText := make([]byte, len(paddedText))
	mode.CryptBlocks(cipherText, paddedText)

	return cipherText, nil
}

func DecryptAESCBC(cipherText, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, errors.New("invalid IV length")
	}
	if len(cipherText) == 0 || len(cipherText)%aes.BlockSize != 0 {
		return nil, errors.New("ciphertext is not a multiple of the AES block size")
	}

	plainText := make([]byte, len(cipherText))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plainText, cipherText)

	return plainText, nil
}

// * GZIP

// GzipCompress writes a gzip stream with a zero modification time so equal input gives equal output.
func GzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
	if err != nil {
		return nil, err
	}
	// the zero time.Time is not unix 0 here, it would be written as-is
	writer.ModTime = time.Unix(0, 0)
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write gzip stream: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip stream: %w", err)
	}
	return buf.Bytes(), nil
}

func GzipDecompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer reader.Close()

	// trailing zero padding from the AES stage is not a valid gzip member
	reader.Multistream(false)
	return io.ReadAll(reader)
}

// * RSA

func ParseRSAPublicKey(b64 string) (*rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return pub, nil
}

func EncryptRSAPKCS1(pub *rsa.PublicKey, data []byte) (string, error) {
	cipherText, err := rsa.EncryptPKCS1v15(rand.Reader, pub, data)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt with RSA: %w", err)
	}
	return base64.StdEncoding.EncodeToString(cipherText), nil
}

func StripHTML(input string) string {
	var output bytes.Buffer
	tokenizer := html.NewTokenizer(strings.NewReader(input))

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return strings.TrimSpace(output.String())
		case html.TextToken:
			text := tokenizer.Text()
			output.Write(text)
		}
	}
}

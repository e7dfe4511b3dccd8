package security

import (
	"bytes"
	"errors"
	"io"

	"github.com/go-think/openssl"
	"github.com/klauspost/compress/gzip"
)

var ErrKeySize = errors.New("aes key must be 16, 24 or 32 bytes")

func checkKey(key []byte) error {
	switch len(key) {
	case 16, 24, 32:
		return nil
	default:
		return ErrKeySize
	}
}

// AesCBCEncrypt 推送帧加密，iv 与 key 相同，和客户端约定一致。
func AesCBCEncrypt(src, key []byte, padding string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return openssl.AesCBCEncrypt(src, key, key[:16], padding)
}

func AesCBCDecrypt(src, key []byte, padding string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return openssl.AesCBCDecrypt(src, key, key[:16], padding)
}

func Zip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnZip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

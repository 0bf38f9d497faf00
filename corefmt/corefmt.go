// Package corefmt 處理 session 快照與 PRNG 狀態的傳輸格式：文字安全編碼與 zstd 壓縮。
package corefmt

import (
	"bytes"
	"encoding/base64"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/ladderslot/errs"
)

// zstdMagic 是 zstd frame 的開頭四個位元組。
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// EncodeBase64URL 以不補齊的 base64url 編碼，快照可直接放進 JSON。
func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeBase64URL(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode base64url failed")
	}
	return b, err
}

// ============================================================
// ** zstd **
// ============================================================

// IsZstd 回傳 b 是否以 zstd frame 開頭。
func IsZstd(b []byte) bool {
	return bytes.HasPrefix(b, zstdMagic)
}

// CompressZstd 以預設等級壓縮成單一 zstd frame。
func CompressZstd(b []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errs.Wrap(err, "create zstd writer failed")
	}
	defer enc.Close()
	return enc.EncodeAll(b, make([]byte, 0, len(b)/2)), nil
}

// DecompressZstd 解壓 CompressZstd 的輸出；maxBytes > 0 時限制解壓後大小。
func DecompressZstd(b []byte, maxBytes uint64) ([]byte, error) {
	opts := []zstd.DOption{}
	if maxBytes > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(maxBytes))
	}
	dec, err := zstd.NewReader(nil, opts...)
	if err != nil {
		return nil, errs.Wrap(err, "create zstd reader failed")
	}
	defer dec.Close()
	out, err := dec.DecodeAll(b, nil)
	if err != nil {
		return nil, errs.Wrap(err, "zstd decode failed")
	}
	return out, nil
}

package middleware

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type CompressConfig struct {
	GzipLevel int
	ZstdLevel zstd.EncoderLevel
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel: gzip.DefaultCompression,
	ZstdLevel: zstd.SpeedFastest,
}

var (
	gzipPool sync.Pool
	zstdPool sync.Pool
)

// 已壓縮或二進位內容不再壓一次（例如 session 匯出的 application/zstd）。
var passthroughTypes = []string{
	"application/zstd",
	"application/gzip",
	"application/octet-stream",
	"image/",
}

type encoder interface {
	io.Writer
	Flush() error
	Close() error
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") ||
		r.Header.Get("Upgrade") != ""
}

func isNoBodyStatus(code int) bool {
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}

func isPassthrough(ct string) bool {
	ct = strings.ToLower(ct)
	for _, p := range passthroughTypes {
		if strings.HasPrefix(ct, p) {
			return true
		}
	}
	return false
}

func acquire(enc string, w io.Writer) encoder {
	switch enc {
	case "zstd":
		if v := zstdPool.Get(); v != nil {
			zw := v.(*zstd.Encoder)
			zw.Reset(w)
			return zw
		}
		zw, err := zstd.NewWriter(w,
			zstd.WithEncoderLevel(DefaultCompressConfig.ZstdLevel),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic(err)
		}
		return zw
	default:
		if v := gzipPool.Get(); v != nil {
			gw := v.(*gzip.Writer)
			gw.Reset(w)
			return gw
		}
		gw, _ := gzip.NewWriterLevel(w, DefaultCompressConfig.GzipLevel)
		return gw
	}
}

func release(e encoder) {
	_ = e.Close()
	switch v := e.(type) {
	case *zstd.Encoder:
		v.Reset(io.Discard)
		zstdPool.Put(v)
	case *gzip.Writer:
		v.Reset(io.Discard)
		gzipPool.Put(v)
	}
}

// compressWriter 延後到第一次寫 header / body 才決定是否壓縮，
// 這時 handler 已設定好 Content-Type 與狀態碼。
type compressWriter struct {
	http.ResponseWriter
	enc     string
	decided bool
	e       encoder
}

func (cw *compressWriter) decide(code int) {
	if cw.decided {
		return
	}
	cw.decided = true
	h := cw.Header()
	if isNoBodyStatus(code) || h.Get("Content-Encoding") != "" || isPassthrough(h.Get("Content-Type")) {
		return
	}
	h.Del("Content-Length")
	h.Set("Content-Encoding", cw.enc)
	h.Add("Vary", "Accept-Encoding")
	cw.e = acquire(cw.enc, cw.ResponseWriter)
}

func (cw *compressWriter) WriteHeader(code int) {
	cw.decide(code)
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressWriter) Write(b []byte) (int, error) {
	if !cw.decided {
		if cw.Header().Get("Content-Type") == "" {
			cw.Header().Set("Content-Type", http.DetectContentType(b))
		}
		cw.decide(http.StatusOK)
	}
	if cw.e == nil {
		return cw.ResponseWriter.Write(b)
	}
	return cw.e.Write(b)
}

func (cw *compressWriter) Flush() {
	if cw.e != nil {
		_ = cw.e.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support Hijacker")
	}
	return hj.Hijack()
}

func (cw *compressWriter) finish() {
	if cw.e != nil {
		release(cw.e)
		cw.e = nil
	}
}

// Compression 依 Accept-Encoding 以 zstd（優先）或 gzip 壓縮回應。
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead || isWebSocketUpgrade(r) {
			next.ServeHTTP(w, r)
			return
		}
		ae := r.Header.Get("Accept-Encoding")
		var enc string
		switch {
		case strings.Contains(ae, "zstd"):
			enc = "zstd"
		case strings.Contains(ae, "gzip"):
			enc = "gzip"
		default:
			next.ServeHTTP(w, r)
			return
		}
		cw := &compressWriter{ResponseWriter: w, enc: enc}
		defer cw.finish()
		next.ServeHTTP(cw, r)
	})
}

// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package compression encodes responses with brotli or gzip, whichever the
// client prefers in Accept-Encoding.
//
// Responses smaller than the minimum size, already encoded responses, and
// streaming or binary content types are passed through unchanged.
package compression

import (
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"

	"rivaas.dev/conduit/pipeline"
)

// Option configures the middleware.
type Option func(*config)

type config struct {
	logger              *slog.Logger
	gzipLevel           int
	brotliLevel         int
	minSize             int
	enableGzip          bool
	enableBrotli        bool
	excludePaths        map[string]bool
	excludeExtensions   []string
	excludeContentTypes []string
}

func defaultConfig() *config {
	return &config{
		gzipLevel:    gzip.DefaultCompression,
		brotliLevel:  4,
		enableGzip:   true,
		enableBrotli: true,
		excludePaths: make(map[string]bool),
	}
}

// WithLogger logs encoder failures that happen after the handler returned.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithGzipLevel sets the gzip level, gzip.BestSpeed to gzip.BestCompression.
func WithGzipLevel(level int) Option {
	return func(c *config) {
		if level >= gzip.HuffmanOnly && level <= gzip.BestCompression {
			c.gzipLevel = level
		}
	}
}

// WithBrotliLevel sets the brotli quality, 0 to 11.
func WithBrotliLevel(level int) Option {
	return func(c *config) {
		if level >= brotli.BestSpeed && level <= brotli.BestCompression {
			c.brotliLevel = level
		}
	}
}

// WithMinSize leaves bodies smaller than size bytes uncompressed.
// Default: 0, compress everything.
func WithMinSize(size int) Option {
	return func(c *config) {
		c.minSize = max(0, size)
	}
}

// WithGzip toggles gzip support.
func WithGzip(enabled bool) Option {
	return func(c *config) {
		c.enableGzip = enabled
	}
}

// WithBrotli toggles brotli support.
func WithBrotli(enabled bool) Option {
	return func(c *config) {
		c.enableBrotli = enabled
	}
}

// WithExcludePaths skips compression for exact paths.
func WithExcludePaths(paths ...string) Option {
	return func(c *config) {
		for _, p := range paths {
			c.excludePaths[p] = true
		}
	}
}

// WithExcludeExtensions skips paths ending in one of the extensions, such as
// ".png".
func WithExcludeExtensions(exts ...string) Option {
	return func(c *config) {
		c.excludeExtensions = append(c.excludeExtensions, exts...)
	}
}

// WithExcludeContentTypes skips responses whose Content-Type contains one
// of the given types.
func WithExcludeContentTypes(types ...string) Option {
	return func(c *config) {
		for _, t := range types {
			c.excludeContentTypes = append(c.excludeContentTypes, strings.ToLower(t))
		}
	}
}

// New returns the compression middleware.
func New(opts ...Option) pipeline.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return pipeline.MiddlewareFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		path := r.URL.Path
		if cfg.excludePaths[path] || hasSuffix(path, cfg.excludeExtensions) || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		encoding := chooseEncoding(r.Header.Get("Accept-Encoding"), cfg)
		if encoding == "" {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Add("Vary", "Accept-Encoding")
		cw := &compressWriter{ResponseWriter: w, cfg: cfg, encoding: encoding}
		next.ServeHTTP(cw, r)

		if err := cw.Close(); err != nil && cfg.logger != nil {
			cfg.logger.ErrorContext(r.Context(), "compression finalization failed", "error", err)
		}
	})
}

func hasSuffix(path string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

type compressWriter struct {
	http.ResponseWriter
	cfg      *config
	encoding string

	status      int
	wroteHeader bool
	decided     bool
	buf         []byte
	enc         io.WriteCloser
}

func (cw *compressWriter) WriteHeader(code int) {
	if cw.wroteHeader || cw.status != 0 {
		return
	}
	if code < http.StatusOK {
		cw.ResponseWriter.WriteHeader(code)
		return
	}
	cw.status = code
	if !cw.compressible() {
		cw.decide(false)
	}
}

func (cw *compressWriter) Write(p []byte) (int, error) {
	if cw.status == 0 {
		cw.status = http.StatusOK
	}
	if !cw.decided {
		if len(cw.buf)+len(p) < cw.cfg.minSize {
			cw.buf = append(cw.buf, p...)
			return len(p), nil
		}
		if cw.Header().Get("Content-Type") == "" {
			cw.Header().Set("Content-Type", http.DetectContentType(append(cw.buf, p...)))
		}
		cw.decide(cw.compressible())
	}

	if cw.enc != nil {
		return cw.enc.Write(p)
	}
	return cw.ResponseWriter.Write(p)
}

// compressible reports whether the response may still be encoded.
func (cw *compressWriter) compressible() bool {
	switch cw.status {
	case http.StatusNoContent, http.StatusNotModified, http.StatusPartialContent:
		return false
	}
	h := cw.Header()
	if h.Get("Content-Encoding") != "" {
		return false
	}
	ct := strings.ToLower(h.Get("Content-Type"))
	if ct == "" {
		return true
	}
	for _, skip := range []string{"text/event-stream", "application/grpc", "application/octet-stream"} {
		if strings.Contains(ct, skip) {
			return false
		}
	}
	for _, skip := range cw.cfg.excludeContentTypes {
		if strings.Contains(ct, skip) {
			return false
		}
	}
	return true
}

// decide writes the header and flushes any buffered bytes.
func (cw *compressWriter) decide(compress bool) {
	cw.decided = true
	if compress {
		h := cw.Header()
		h.Del("Content-Length")
		h.Set("Content-Encoding", cw.encoding)
		cw.enc = acquire(cw.encoding, cw.cfg, cw.ResponseWriter)
	}
	cw.ResponseWriter.WriteHeader(cw.status)
	cw.wroteHeader = true

	if len(cw.buf) > 0 {
		buf := cw.buf
		cw.buf = nil
		if cw.enc != nil {
			_, _ = cw.enc.Write(buf)
		} else {
			_, _ = cw.ResponseWriter.Write(buf)
		}
	}
}

// Close finishes the encoded stream and returns the encoder to its pool.
func (cw *compressWriter) Close() error {
	if !cw.decided {
		if cw.status == 0 {
			return nil
		}
		cw.decide(false)
	}
	if cw.enc == nil {
		return nil
	}
	err := cw.enc.Close()
	release(cw.encoding, cw.cfg, cw.enc)
	cw.enc = nil
	return err
}

func (cw *compressWriter) Flush() {
	if !cw.decided && cw.status != 0 {
		cw.decide(cw.compressible())
	}
	if f, ok := cw.enc.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

var pools sync.Map // "br:4" -> *sync.Pool

func pool(encoding string, level int) *sync.Pool {
	key := encoding + ":" + strconv.Itoa(level)
	if p, ok := pools.Load(key); ok {
		return p.(*sync.Pool)
	}
	p, _ := pools.LoadOrStore(key, &sync.Pool{New: func() any {
		if encoding == "br" {
			return brotli.NewWriterLevel(io.Discard, level)
		}
		gz, _ := gzip.NewWriterLevel(io.Discard, level)
		return gz
	}})
	return p.(*sync.Pool)
}

func acquire(encoding string, cfg *config, w io.Writer) io.WriteCloser {
	if encoding == "br" {
		bw := pool(encoding, cfg.brotliLevel).Get().(*brotli.Writer)
		bw.Reset(w)
		return bw
	}
	gw := pool(encoding, cfg.gzipLevel).Get().(*gzip.Writer)
	gw.Reset(w)
	return gw
}

func release(encoding string, cfg *config, enc io.WriteCloser) {
	switch e := enc.(type) {
	case *brotli.Writer:
		e.Reset(io.Discard)
		pool(encoding, cfg.brotliLevel).Put(e)
	case *gzip.Writer:
		e.Reset(io.Discard)
		pool(encoding, cfg.gzipLevel).Put(e)
	}
}

// chooseEncoding prefers brotli when its quality is at least gzip's.
func chooseEncoding(acceptEncoding string, cfg *config) string {
	if acceptEncoding == "" {
		return ""
	}
	ae := strings.ToLower(acceptEncoding)
	brQ, gzipQ := qValue(ae, "br"), qValue(ae, "gzip")

	if cfg.enableBrotli && brQ > 0 && brQ >= gzipQ {
		return "br"
	}
	if cfg.enableGzip && gzipQ > 0 {
		return "gzip"
	}
	return ""
}

// qValue returns the quality of encoding in accept, 0 when absent.
func qValue(accept, encoding string) float64 {
	for part := range strings.SplitSeq(accept, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.TrimSpace(name) != encoding {
			continue
		}
		q := 1.0
		for p := range strings.SplitSeq(params, ";") {
			if v, ok := strings.CutPrefix(strings.TrimSpace(p), "q="); ok {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					q = f
				}
			}
		}
		return q
	}
	return 0
}

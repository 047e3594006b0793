package compressor

import (
	"runtime"

	"github.com/klauspost/compress/zstd"

	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

// ZstdCompressor 基于 github.com/klauspost/compress/zstd 的压缩实现。
//
// 它持有独立的 encoder/decoder 实例，EncodeAll/DecodeAll 可以被多个 goroutine 并发调用。
type ZstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// 编译期断言：确保 ZstdCompressor 实现了 Compressor 接口。
var _ Compressor = (*ZstdCompressor)(nil)

type zstdConfig struct {
	level       int
	concurrency int
}

// ZstdOption 为 ZstdCompressor 的可选配置项。
type ZstdOption func(*zstdConfig)

// WithLevel 设置压缩级别，取值 1（最快）到 4（最高压缩率），其它值使用默认级别。
func WithLevel(level int) ZstdOption {
	return func(c *zstdConfig) { c.level = level }
}

// WithConcurrency 设置 encoder/decoder 的并发度，<= 0 时使用 GOMAXPROCS。
func WithConcurrency(n int) ZstdOption {
	return func(c *zstdConfig) { c.concurrency = n }
}

// NewZstdCompressor 创建一个 ZstdCompressor。
func NewZstdCompressor(opts ...ZstdOption) (*ZstdCompressor, error) {
	cfg := zstdConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.concurrency <= 0 {
		cfg.concurrency = runtime.GOMAXPROCS(0)
	}

	encOpts := []zstd.EOption{
		zstd.WithZeroFrames(true),
		zstd.WithEncoderConcurrency(cfg.concurrency),
	}
	if cfg.level >= int(zstd.SpeedFastest) && cfg.level <= int(zstd.SpeedBestCompression) {
		encOpts = append(encOpts, zstd.WithEncoderLevel(zstd.EncoderLevel(cfg.level)))
	}

	enc, err := zstd.NewWriter(nil, encOpts...)
	if err != nil {
		return nil, merr.WrapErrParameterInvalidMsg("create zstd encoder: %s", err.Error())
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(cfg.concurrency))
	if err != nil {
		_ = enc.Close()
		return nil, merr.WrapErrParameterInvalidMsg("create zstd decoder: %s", err.Error())
	}
	return &ZstdCompressor{
		enc: enc,
		dec: dec,
	}, nil
}

func (c *ZstdCompressor) Name() string {
	return NameZstd
}

// Compress 实现 Compressor 接口。
func (c *ZstdCompressor) Compress(dst, src []byte) ([]byte, error) {
	if c == nil || c.enc == nil {
		return nil, zstd.ErrEncoderClosed
	}
	return c.enc.EncodeAll(src, dst[:0]), nil
}

// Decompress 实现 Compressor 接口。损坏的数据返回 ErrMalformedDocument。
func (c *ZstdCompressor) Decompress(dst, src []byte) ([]byte, error) {
	if c == nil || c.dec == nil {
		return nil, zstd.ErrDecoderClosed
	}
	out, err := c.dec.DecodeAll(src, dst[:0])
	if err != nil {
		return nil, merr.WrapErrMalformedDocumentCause(err, "zstd")
	}
	return out, nil
}

// Close 释放内部 encoder/decoder 持有的资源。
// 再次使用已关闭实例将返回 ErrEncoderClosed/ErrDecoderClosed。
func (c *ZstdCompressor) Close() {
	if c == nil {
		return
	}
	if c.enc != nil {
		_ = c.enc.Close()
		c.enc = nil
	}
	if c.dec != nil {
		c.dec.Close()
		c.dec = nil
	}
}

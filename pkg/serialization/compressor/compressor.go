package compressor

import (
	"bytes"
	"strings"

	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

const (
	NameNone = "none"
	NameZstd = "zstd"
)

// zstdMagic 为 zstd 帧的起始魔数（小端 0xFD2FB528）。
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Compressor 抽象了整篇文档的压缩与解压。
//
// Serializer 在保存/读取文件时使用它：渲染结果整体压缩后落盘，读取时整体解压再交给 Codec 解析。
type Compressor interface {
	// Name 返回压缩算法名称。
	Name() string

	// Compress 将 src 压缩后追加到 dst[:0]，返回完整的压缩数据。
	Compress(dst, src []byte) (packet []byte, err error)

	// Decompress 将 Compress 的输出解压，行为与 Compress 对称。
	Decompress(dst, src []byte) (plain []byte, err error)
}

// NopCompressor 不做任何压缩，直接返回输入内容。
type NopCompressor struct{}

func (NopCompressor) Name() string {
	return NameNone
}

func (NopCompressor) Compress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Decompress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

// 编译期断言：确保 NopCompressor 实现了 Compressor 接口。
var _ Compressor = NopCompressor{}

// New 按名称创建 Compressor，level 只对 zstd 生效。
func New(name string, level int) (Compressor, error) {
	switch strings.ToLower(name) {
	case "", NameNone:
		return NopCompressor{}, nil
	case NameZstd:
		return NewZstdCompressor(WithLevel(level))
	}
	return nil, merr.WrapErrParameterInvalidMsg("unknown compressor %q", name)
}

// IsZstdFrame 判断 data 是否以 zstd 帧魔数开头。
func IsZstdFrame(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

package codec

import (
	"io"
	"unicode"
	"unicode/utf8"

	"github.com/lk2023060901/xmlserial-go/pkg/serialization/node"
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

const (
	NameXML  = "xml"
	NameJSON = "json"

	// VersionAttribute 为 XML 中记录节点版本号的保留属性名。
	VersionAttribute = "version"

	// DefaultMaxDepth 为解析时允许的最大嵌套深度。
	DefaultMaxDepth = 256
	// DefaultIndent 为渲染时默认使用的缩进。
	DefaultIndent = "\t"
)

// Codec 负责 Node 树与具体文本格式之间的相互转换，是唯一了解线上语法的组件。
//
// 约定：
//   - Encode 先在内存中完成渲染，只有成功时才写入 w，失败时不会输出半截文档；
//   - Decode 一次性读取整个文档，失败时不返回部分构造的树；
//   - 属性顺序与子节点顺序在 Encode/Decode 之间保持不变。
type Codec interface {
	// Name 返回编码名称，例如 "xml"。
	Name() string

	// Encode 将以 n 为根的树渲染到 w。
	Encode(w io.Writer, n *node.Node) error

	// Decode 从 r 中解析出一棵树。
	Decode(r io.Reader) (*node.Node, error)
}

// Options 为按名称构造 Codec 时使用的公共参数。
type Options struct {
	// Indent 为渲染时使用的缩进，空字符串表示紧凑输出。
	Indent string
	// MaxDepth 为解析时允许的最大嵌套深度，<= 0 时使用 DefaultMaxDepth。
	MaxDepth int
}

// New 按名称创建 Codec，未知名称返回 ErrParameterInvalid。
func New(name string, opts Options) (Codec, error) {
	switch name {
	case NameXML, "":
		return NewXMLCodec(WithIndent(opts.Indent), WithMaxDepth(opts.MaxDepth)), nil
	case NameJSON:
		return NewJSONCodec(WithIndent(opts.Indent), WithMaxDepth(opts.MaxDepth)), nil
	}
	return nil, merr.WrapErrParameterInvalidMsg("unknown codec %q", name)
}

type config struct {
	indent   string
	maxDepth int
}

// Option 为 Codec 的可选配置项。
type Option func(*config)

func WithIndent(indent string) Option {
	return func(c *config) { c.indent = indent }
}

func WithMaxDepth(depth int) Option {
	return func(c *config) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

func newConfig(opts ...Option) config {
	c := config{indent: DefaultIndent, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// IsValidName 判断 name 能否作为 XML 元素名或属性名直接输出。
// 规则：首字符为字母或下划线，其余字符为字母、数字、'-'、'_' 或 '.'；不支持命名空间前缀。
func IsValidName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case unicode.IsLetter(r) || r == '_':
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// IsXMLText 判断 s 是否为合法 UTF-8，且每个字符都落在 XML 1.0 允许的字符范围内。
// 不满足时 XML 无法原样携带该值，渲染会把它替换为 U+FFFD。
func IsXMLText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return false
		}
	}
	return true
}

func isXMLChar(r rune) bool {
	return r == '\t' || r == '\n' || r == '\r' ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= utf8.MaxRune)
}

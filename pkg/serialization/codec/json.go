package codec

import (
	"bytes"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/bytedance/sonic"

	"github.com/lk2023060901/xmlserial-go/pkg/serialization/node"
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

// jsonNode 是 Node 在 JSON 中的表示。属性使用 [name, value] 数组列表，以保持插入顺序。
type jsonNode struct {
	Name       string      `json:"name"`
	Version    int         `json:"version,omitempty"`
	Properties [][2]string `json:"properties,omitempty"`
	Children   []*jsonNode `json:"children,omitempty"`
}

// JSONCodec 使用 bytedance/sonic 将 Node 树渲染为 JSON。
type JSONCodec struct {
	cfg config
}

// 编译期断言：确保 JSONCodec 实现了 Codec 接口。
var _ Codec = (*JSONCodec)(nil)

func NewJSONCodec(opts ...Option) *JSONCodec {
	return &JSONCodec{cfg: newConfig(opts...)}
}

func (c *JSONCodec) Name() string {
	return NameJSON
}

// Encode 实现 Codec.Encode。
func (c *JSONCodec) Encode(w io.Writer, n *node.Node) error {
	if w == nil {
		return merr.WrapErrParameterInvalidMsg("json codec: writer is nil")
	}
	if n == nil {
		return merr.WrapErrParameterInvalidMsg("json codec: node is nil")
	}
	jn, err := c.toJSON(n, 0)
	if err != nil {
		return err
	}

	var data []byte
	if c.cfg.indent != "" {
		data, err = sonic.ConfigStd.MarshalIndent(jn, "", c.cfg.indent)
	} else {
		data, err = sonic.ConfigStd.Marshal(jn)
	}
	if err != nil {
		return merr.WrapErrMalformedDocumentCause(err)
	}

	if _, err := w.Write(data); err != nil {
		return merr.WrapErrIoFailed("json", err)
	}
	return nil
}

func (c *JSONCodec) toJSON(n *node.Node, depth int) (*jsonNode, error) {
	if depth >= c.cfg.maxDepth {
		return nil, merr.WrapErrMalformedDocument("tree exceeds max depth " + strconv.Itoa(c.cfg.maxDepth))
	}
	if n.Name() == "" {
		return nil, merr.WrapErrMalformedDocument("empty node name")
	}
	jn := &jsonNode{Name: n.Name(), Version: n.Version()}
	if !utf8.ValidString(n.Name()) {
		return nil, merr.WrapErrMalformedDocument("node name is not valid UTF-8")
	}
	for _, prop := range n.Properties() {
		if !utf8.ValidString(prop.Name) || !utf8.ValidString(prop.Value) {
			return nil, merr.WrapErrMalformedDocument("property " + strconv.Quote(prop.Name) + " is not valid UTF-8")
		}
		jn.Properties = append(jn.Properties, [2]string{prop.Name, prop.Value})
	}
	for _, child := range n.Children() {
		jc, err := c.toJSON(child, depth+1)
		if err != nil {
			return nil, err
		}
		jn.Children = append(jn.Children, jc)
	}
	return jn, nil
}

// Decode 实现 Codec.Decode。
func (c *JSONCodec) Decode(r io.Reader) (*node.Node, error) {
	if r == nil {
		return nil, merr.WrapErrParameterInvalidMsg("json codec: reader is nil")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, merr.WrapErrIoFailed("json", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, merr.WrapErrMalformedDocument("empty document")
	}

	var jn jsonNode
	if err := sonic.ConfigStd.Unmarshal(data, &jn); err != nil {
		return nil, merr.WrapErrMalformedDocumentCause(err)
	}
	return c.fromJSON(&jn, 0)
}

func (c *JSONCodec) fromJSON(jn *jsonNode, depth int) (*node.Node, error) {
	if jn == nil {
		return nil, merr.WrapErrMalformedDocument("null node")
	}
	if depth >= c.cfg.maxDepth {
		return nil, merr.WrapErrMalformedDocument("document exceeds max depth " + strconv.Itoa(c.cfg.maxDepth))
	}
	if jn.Name == "" {
		return nil, merr.WrapErrMalformedDocument("empty node name")
	}
	n := node.New(jn.Name).SetVersion(jn.Version)
	for _, prop := range jn.Properties {
		if n.HasProperty(prop[0]) {
			return nil, merr.WrapErrMalformedDocument("duplicate property " + strconv.Quote(prop[0]) + " on " + jn.Name)
		}
		n.SetStringProperty(prop[0], prop[1])
	}
	for _, jc := range jn.Children {
		child, err := c.fromJSON(jc, depth+1)
		if err != nil {
			return nil, err
		}
		n.AppendChild(child)
	}
	return n, nil
}

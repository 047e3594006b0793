package codec

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/lk2023060901/xmlserial-go/pkg/serialization/node"
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
	"github.com/lk2023060901/xmlserial-go/pkg/util/typeutil"
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`

// XMLCodec 将 Node 树渲染为 XML，每个节点对应一个元素，属性对应元素属性。
//
// 节点版本号使用保留属性 "version" 输出（为 0 时省略）；元素不携带文本内容。
type XMLCodec struct {
	cfg config
}

// 编译期断言：确保 XMLCodec 实现了 Codec 接口。
var _ Codec = (*XMLCodec)(nil)

func NewXMLCodec(opts ...Option) *XMLCodec {
	return &XMLCodec{cfg: newConfig(opts...)}
}

func (c *XMLCodec) Name() string {
	return NameXML
}

// Encode 实现 Codec.Encode。
func (c *XMLCodec) Encode(w io.Writer, n *node.Node) error {
	if w == nil {
		return merr.WrapErrParameterInvalidMsg("xml codec: writer is nil")
	}
	if n == nil {
		return merr.WrapErrParameterInvalidMsg("xml codec: node is nil")
	}

	var buf bytes.Buffer
	buf.WriteString(xmlDeclaration)
	c.newline(&buf)
	if err := c.writeNode(&buf, n, 0); err != nil {
		return err
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return merr.WrapErrIoFailed("xml", err)
	}
	return nil
}

func (c *XMLCodec) newline(buf *bytes.Buffer) {
	if c.cfg.indent != "" {
		buf.WriteByte('\n')
	}
}

func (c *XMLCodec) writeNode(buf *bytes.Buffer, n *node.Node, depth int) error {
	if depth >= c.cfg.maxDepth {
		return merr.WrapErrMalformedDocument("tree exceeds max depth " + strconv.Itoa(c.cfg.maxDepth))
	}
	if !IsValidName(n.Name()) {
		return merr.WrapErrMalformedDocument("invalid element name " + strconv.Quote(n.Name()))
	}

	buf.WriteString(strings.Repeat(c.cfg.indent, depth))
	buf.WriteByte('<')
	buf.WriteString(n.Name())
	if n.Version() != 0 {
		buf.WriteString(` ` + VersionAttribute + `="`)
		buf.WriteString(strconv.Itoa(n.Version()))
		buf.WriteByte('"')
	}
	for _, prop := range n.Properties() {
		if prop.Name == VersionAttribute {
			return merr.WrapErrMalformedDocument("property name " + strconv.Quote(prop.Name) + " is reserved")
		}
		if !IsValidName(prop.Name) {
			return merr.WrapErrMalformedDocument("invalid attribute name " + strconv.Quote(prop.Name))
		}
		if !IsXMLText(prop.Value) {
			return merr.WrapErrMalformedDocument("property " + prop.Name + " contains a character XML cannot carry")
		}
		buf.WriteByte(' ')
		buf.WriteString(prop.Name)
		buf.WriteString(`="`)
		// EscapeText 转义 & < > " ' 以及制表符、换行、回车，保证解析后原样还原。
		if err := xml.EscapeText(buf, []byte(prop.Value)); err != nil {
			return merr.WrapErrMalformedDocumentCause(err)
		}
		buf.WriteByte('"')
	}

	children := n.Children()
	if len(children) == 0 {
		buf.WriteString("/>")
		c.newline(buf)
		return nil
	}

	buf.WriteByte('>')
	c.newline(buf)
	for _, child := range children {
		if err := c.writeNode(buf, child, depth+1); err != nil {
			return err
		}
	}
	buf.WriteString(strings.Repeat(c.cfg.indent, depth))
	buf.WriteString("</")
	buf.WriteString(n.Name())
	buf.WriteByte('>')
	c.newline(buf)
	return nil
}

// Decode 实现 Codec.Decode。
//
// 解析为严格模式：未闭合或不匹配的标签、未定义的实体引用、重复属性、多个根元素、
// 非空白文本内容都会返回 ErrMalformedDocument。注释与处理指令会被忽略。
func (c *XMLCodec) Decode(r io.Reader) (*node.Node, error) {
	if r == nil {
		return nil, merr.WrapErrParameterInvalidMsg("xml codec: reader is nil")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, merr.WrapErrIoFailed("xml", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, merr.WrapErrMalformedDocument("empty document")
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	var (
		root  *node.Node
		stack []*node.Node
	)
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, merr.WrapErrMalformedDocumentCause(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, merr.WrapErrMalformedDocument("multiple root elements")
			}
			if len(stack) >= c.cfg.maxDepth {
				return nil, merr.WrapErrMalformedDocument("document exceeds max depth " + strconv.Itoa(c.cfg.maxDepth))
			}
			n, err := elementToNode(t)
			if err != nil {
				return nil, err
			}
			if root == nil {
				root = n
			} else {
				stack[len(stack)-1].AppendChild(n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			name, err := localName(t.Name)
			if err != nil {
				return nil, err
			}
			if len(stack) == 0 {
				return nil, merr.WrapErrMalformedDocument("unexpected end element </" + name + ">")
			}
			if top := stack[len(stack)-1]; top.Name() != name {
				return nil, merr.WrapErrMalformedDocument("element <" + top.Name() + "> closed by </" + name + ">")
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return nil, merr.WrapErrMalformedDocument("unexpected text content")
			}

		case xml.Comment, xml.ProcInst, xml.Directive:
		}
	}

	if len(stack) != 0 {
		return nil, merr.WrapErrMalformedDocument("unclosed element <" + stack[len(stack)-1].Name() + ">")
	}
	if root == nil {
		return nil, merr.WrapErrMalformedDocument("no root element")
	}
	return root, nil
}

func elementToNode(t xml.StartElement) (*node.Node, error) {
	elem, err := localName(t.Name)
	if err != nil {
		return nil, err
	}
	n := node.New(elem)
	seen := typeutil.NewSet[string]()
	for _, attr := range t.Attr {
		name, err := localName(attr.Name)
		if err != nil {
			return nil, err
		}
		if !seen.TryInsert(name) {
			return nil, merr.WrapErrMalformedDocument("duplicate attribute " + strconv.Quote(name) + " on <" + n.Name() + ">")
		}
		if name == VersionAttribute {
			version, err := strconv.Atoi(strings.TrimSpace(attr.Value))
			if err != nil {
				return nil, merr.WrapErrMalformedDocument("version of <" + n.Name() + "> is not an integer")
			}
			n.SetVersion(version)
			continue
		}
		n.SetStringProperty(name, attr.Value)
	}
	return n, nil
}

// localName 拒绝带命名空间前缀的名字，与渲染端 IsValidName 的规则保持一致。
func localName(name xml.Name) (string, error) {
	if name.Space != "" {
		return "", merr.WrapErrMalformedDocument("prefixed name " + strconv.Quote(name.Space+":"+name.Local) + " is not supported")
	}
	return name.Local, nil
}

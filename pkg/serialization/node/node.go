package node

import (
	"strconv"
	"strings"

	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

// ListSeparator 为整数列表属性使用的分隔符。
const ListSeparator = ","

// Property 为节点上的一个字符串属性。
type Property struct {
	Name  string
	Value string
}

// Node 是序列化过程中使用的中间树结构。
//
// 约定：
//   - 所有标量数据都以字符串形式保存在属性中，数值的格式化/解析由 Proxy 负责；
//   - 属性与子节点都保持插入顺序，渲染与解析都不会改变顺序；
//   - 每个子节点只归属于一个父节点，树中不存在环。
type Node struct {
	name       string
	version    int
	properties []Property
	children   []*Node
}

// New 创建一个名为 name 的根节点。
func New(name string) *Node {
	return &Node{name: name}
}

// Name 返回节点名称。
func (n *Node) Name() string {
	return n.name
}

// Version 返回节点版本号，0 表示未设置。
func (n *Node) Version() int {
	return n.version
}

// SetVersion 设置节点版本号。
func (n *Node) SetVersion(version int) *Node {
	n.version = version
	return n
}

// CreateChildNode 追加并返回一个新的子节点。
func (n *Node) CreateChildNode(name string) *Node {
	child := New(name)
	n.children = append(n.children, child)
	return child
}

// AppendChild 追加一个已构造好的子节点，供解码器使用。
// child 不得已经挂在其它节点下。
func (n *Node) AppendChild(child *Node) *Node {
	n.children = append(n.children, child)
	return child
}

// Children 返回子节点列表的副本，调用方修改返回的切片不会影响节点本身。
func (n *Node) Children() []*Node {
	children := make([]*Node, len(n.children))
	copy(children, n.children)
	return children
}

// NumChildren 返回子节点个数。
func (n *Node) NumChildren() int {
	return len(n.children)
}

// HasChild 判断是否存在名为 name 的子节点。
func (n *Node) HasChild(name string) bool {
	return n.findChild(name) != nil
}

// ChildNode 返回第一个名为 name 的子节点。
func (n *Node) ChildNode(name string) (*Node, error) {
	if child := n.findChild(name); child != nil {
		return child, nil
	}
	return nil, merr.WrapErrMissingChild(n.name, name)
}

// ChildNodes 按顺序返回所有名为 name 的子节点。
func (n *Node) ChildNodes(name string) []*Node {
	var result []*Node
	for _, child := range n.children {
		if child.name == name {
			result = append(result, child)
		}
	}
	return result
}

func (n *Node) findChild(name string) *Node {
	for _, child := range n.children {
		if child.name == name {
			return child
		}
	}
	return nil
}

// Properties 返回属性列表的副本，顺序与插入顺序一致。
func (n *Node) Properties() []Property {
	props := make([]Property, len(n.properties))
	copy(props, n.properties)
	return props
}

// HasProperty 判断属性是否存在。
func (n *Node) HasProperty(name string) bool {
	return n.indexOf(name) >= 0
}

func (n *Node) indexOf(name string) int {
	for i := range n.properties {
		if n.properties[i].Name == name {
			return i
		}
	}
	return -1
}

// SetStringProperty 设置字符串属性。
// 已存在的属性就地覆盖，保持其原有位置。
func (n *Node) SetStringProperty(name, value string) *Node {
	if i := n.indexOf(name); i >= 0 {
		n.properties[i].Value = value
		return n
	}
	n.properties = append(n.properties, Property{Name: name, Value: value})
	return n
}

// StringProperty 返回字符串属性，属性不存在时返回 ErrMissingProperty。
func (n *Node) StringProperty(name string) (string, error) {
	if i := n.indexOf(name); i >= 0 {
		return n.properties[i].Value, nil
	}
	return "", merr.WrapErrMissingProperty(n.name, name)
}

// StringPropertyOr 返回字符串属性，属性不存在时返回 def。
func (n *Node) StringPropertyOr(name, def string) string {
	if i := n.indexOf(name); i >= 0 {
		return n.properties[i].Value
	}
	return def
}

func (n *Node) SetIntProperty(name string, value int) *Node {
	return n.SetStringProperty(name, strconv.Itoa(value))
}

func (n *Node) IntProperty(name string) (int, error) {
	raw, err := n.StringProperty(name)
	if err != nil {
		return 0, err
	}
	return parseInt(name, raw)
}

func (n *Node) IntPropertyOr(name string, def int) (int, error) {
	if !n.HasProperty(name) {
		return def, nil
	}
	return n.IntProperty(name)
}

func (n *Node) SetInt64Property(name string, value int64) *Node {
	return n.SetStringProperty(name, strconv.FormatInt(value, 10))
}

func (n *Node) Int64Property(name string) (int64, error) {
	raw, err := n.StringProperty(name)
	if err != nil {
		return 0, err
	}
	v, perr := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if perr != nil {
		return 0, merr.WrapErrMalformedValue(name, raw, "int64")
	}
	return v, nil
}

// SetDoubleProperty 以最短且可精确还原的十进制形式保存浮点数。
func (n *Node) SetDoubleProperty(name string, value float64) *Node {
	return n.SetStringProperty(name, FormatDouble(value))
}

func (n *Node) DoubleProperty(name string) (float64, error) {
	raw, err := n.StringProperty(name)
	if err != nil {
		return 0, err
	}
	v, perr := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if perr != nil {
		return 0, merr.WrapErrMalformedValue(name, raw, "double")
	}
	return v, nil
}

func (n *Node) DoublePropertyOr(name string, def float64) (float64, error) {
	if !n.HasProperty(name) {
		return def, nil
	}
	return n.DoubleProperty(name)
}

func (n *Node) SetBoolProperty(name string, value bool) *Node {
	return n.SetStringProperty(name, strconv.FormatBool(value))
}

// BoolProperty 解析布尔属性，接受 true/false 以及 1/0。
func (n *Node) BoolProperty(name string) (bool, error) {
	raw, err := n.StringProperty(name)
	if err != nil {
		return false, err
	}
	switch strings.TrimSpace(raw) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, merr.WrapErrMalformedValue(name, raw, "bool")
}

func (n *Node) BoolPropertyOr(name string, def bool) (bool, error) {
	if !n.HasProperty(name) {
		return def, nil
	}
	return n.BoolProperty(name)
}

// SetIntListProperty 以逗号分隔的形式保存整数列表，空列表保存为空字符串。
func (n *Node) SetIntListProperty(name string, values []int) *Node {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return n.SetStringProperty(name, strings.Join(parts, ListSeparator))
}

func (n *Node) IntListProperty(name string) ([]int, error) {
	raw, err := n.StringProperty(name)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return []int{}, nil
	}
	parts := strings.Split(raw, ListSeparator)
	values := make([]int, len(parts))
	for i, part := range parts {
		v, perr := strconv.Atoi(strings.TrimSpace(part))
		if perr != nil {
			return nil, merr.WrapErrMalformedValue(name, raw, "int list")
		}
		values[i] = v
	}
	return values, nil
}

// FormatDouble 返回 v 的规范文本形式，ParseFloat 可以精确还原。
func FormatDouble(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseInt(name, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, merr.WrapErrMalformedValue(name, raw, "int")
	}
	return v, nil
}

// Equal 判断两棵树在结构上是否相同：名称、版本、有序属性与有序子节点。
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n == nil || other == nil {
		return false
	}
	if n.name != other.name || n.version != other.version {
		return false
	}
	if len(n.properties) != len(other.properties) || len(n.children) != len(other.children) {
		return false
	}
	for i := range n.properties {
		if n.properties[i] != other.properties[i] {
			return false
		}
	}
	for i := range n.children {
		if !n.children[i].Equal(other.children[i]) {
			return false
		}
	}
	return true
}

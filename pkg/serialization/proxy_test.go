package serialization

import (
	"github.com/lk2023060901/xmlserial-go/pkg/serialization/node"
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

// 测试用的类型与 Proxy。

type point struct {
	X, Y  float64
	Label string
}

type pointProxy struct{}

func (pointProxy) TypeName() string { return "Point" }

func (pointProxy) Version() int { return 2 }

func (pointProxy) CreateNode(_ Dispatcher, object any, n *node.Node) error {
	p, ok := object.(*point)
	if !ok {
		return merr.WrapErrUnexpectedType("*point", object)
	}
	n.SetDoubleProperty("x", p.X).
		SetDoubleProperty("y", p.Y).
		SetStringProperty("label", p.Label)
	return nil
}

func (pointProxy) CreateObject(_ Dispatcher, n *node.Node) (any, error) {
	x, err := n.DoubleProperty("x")
	if err != nil {
		return nil, err
	}
	y, err := n.DoubleProperty("y")
	if err != nil {
		return nil, err
	}
	return &point{X: x, Y: y, Label: n.StringPropertyOr("label", "")}, nil
}

// otherPointProxy 与 pointProxy 使用相同的类型名，但属于不同的 Proxy 类型。
type otherPointProxy struct{}

func (otherPointProxy) TypeName() string { return "Point" }

func (otherPointProxy) CreateNode(Dispatcher, any, *node.Node) error { return nil }

func (otherPointProxy) CreateObject(Dispatcher, *node.Node) (any, error) { return &point{}, nil }

// group 的 Items 可以是任意已注册类型。
type group struct {
	Name  string
	Items []any
}

type groupProxy struct{}

func (groupProxy) TypeName() string { return "Group" }

func (groupProxy) CreateNode(d Dispatcher, object any, n *node.Node) error {
	g, ok := object.(*group)
	if !ok {
		return merr.WrapErrUnexpectedType("*group", object)
	}
	n.SetStringProperty("name", g.Name)
	items := n.CreateChildNode("Items")
	for _, item := range g.Items {
		if _, err := d.EncodeObject(items, "Item", item); err != nil {
			return err
		}
	}
	return nil
}

func (groupProxy) CreateObject(d Dispatcher, n *node.Node) (any, error) {
	g := &group{Name: n.StringPropertyOr("name", "")}
	items, err := n.ChildNode("Items")
	if err != nil {
		return nil, err
	}
	for _, child := range items.ChildNodes("Item") {
		item, err := d.DecodeObject(child)
		if err != nil {
			return nil, err
		}
		g.Items = append(g.Items, item)
	}
	return g, nil
}

// segment 只在个别用例中注册。
type segment struct{}

// panickingProxy 在构造节点时 panic。
type panickingProxy struct{}

func (panickingProxy) TypeName() string { return "Segment" }

func (panickingProxy) CreateNode(Dispatcher, any, *node.Node) error { panic("segment proxy failed") }

func (panickingProxy) CreateObject(Dispatcher, *node.Node) (any, error) { return &segment{}, nil }

func newTestRegistry() *Registry {
	r := NewRegistry()
	MustRegister[*point](r, pointProxy{})
	MustRegister[*group](r, groupProxy{})
	return r
}

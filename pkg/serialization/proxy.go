package serialization

import (
	"github.com/lk2023060901/xmlserial-go/pkg/serialization/node"
)

// TypeProperty 为记录注册类型名的保留属性。
// 根节点以及所有通过 Dispatcher 写出的多态子节点都携带该属性。
const TypeProperty = "type"

// Proxy 负责某一个具体类型与 Node 之间的相互转换，是唯一了解该类型字段的代码。
//
// 约定：
//   - Proxy 无状态（最多持有一个版本常量），可被多个 goroutine 并发使用；
//   - CreateNode 与 CreateObject 的布局选择必须对称；
//   - 读取时忽略未知的属性与子节点，以兼容更新版本写出的文档；
//   - 字段的静态类型为接口时，通过 Dispatcher 分派，由框架记录实际的注册类型名。
type Proxy interface {
	// TypeName 返回写入 "type" 属性的注册类型名。
	TypeName() string

	// CreateNode 将 object 的全部字段写入 n。n 的名称、版本与 "type" 属性已由框架设置。
	CreateNode(d Dispatcher, object any, n *node.Node) error

	// CreateObject 仅根据 n 的属性与子节点重建对象。
	CreateObject(d Dispatcher, n *node.Node) (any, error)
}

// VersionedProxy 是可选接口，实现它的 Proxy 会把版本号写到节点上。
// 读取时版本号对框架不透明，由 Proxy 自行决定如何处理旧版本。
type VersionedProxy interface {
	Proxy
	Version() int
}

// Dispatcher 为 Proxy 提供嵌套对象的多态分派能力，由 Registry 实现。
type Dispatcher interface {
	// EncodeObject 按 object 的动态类型查找 Proxy，在 parent 下追加名为 childName 的子节点并写入 object。
	// object 未注册时返回 ErrUnregisteredType，此时 parent 不会被修改。
	EncodeObject(parent *node.Node, childName string, object any) (*node.Node, error)

	// DecodeObject 读取 n 的 "type" 属性并调用对应 Proxy 重建对象。
	DecodeObject(n *node.Node) (any, error)
}

// proxyVersion 返回 Proxy 声明的版本号，未实现 VersionedProxy 时为 0。
func proxyVersion(p Proxy) int {
	if vp, ok := p.(VersionedProxy); ok {
		return vp.Version()
	}
	return 0
}

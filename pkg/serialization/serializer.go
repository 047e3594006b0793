package serialization

import (
	"bytes"
	"io"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/xmlserial-go/pkg/log"
	"github.com/lk2023060901/xmlserial-go/pkg/metrics"
	"github.com/lk2023060901/xmlserial-go/pkg/serialization/codec"
	"github.com/lk2023060901/xmlserial-go/pkg/serialization/compressor"
	"github.com/lk2023060901/xmlserial-go/pkg/util/conc"
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
)

// ArchiveSuffix 为压缩文档使用的文件后缀，SaveFile/LoadFile 据此决定是否走 zstd。
const ArchiveSuffix = ".zst"

const unknownTypeLabel = "unknown"

// Serializer 是序列化的门面：分派到 Proxy 构造 Node 树，再交给 Codec 渲染或解析。
//
// 每次调用都是一次独立的线性过程（分派 → 建树/解析 → 渲染/重建），任何阶段失败都会中止整个调用，
// 既不会输出半截文档，也不会返回部分构造的对象。Serializer 本身可以被多个 goroutine 并发使用，
// 前提是其 Registry 已经完成注册（通常已经 Freeze）。
type Serializer struct {
	log.Binder

	registry *Registry
	codec    codec.Codec

	compressionLevel int
	compressor       compressor.Compressor
	zstd             *compressor.ZstdCompressor
	zstdOnce         sync.Once
	zstdErr          error
	ownZstd          bool

	batchWorkers int
	pool         *conc.Pool[[]byte]
	poolOnce     sync.Once
	ownPool      bool

	ioAttempts uint
	ioSleep    time.Duration
}

// Option 为 Serializer 的可选配置项。
type Option func(*Serializer)

// WithRegistry 指定使用的 Registry，缺省为 Default()。
func WithRegistry(r *Registry) Option {
	return func(s *Serializer) { s.registry = r }
}

// WithCodec 指定文本编码，缺省为带缩进的 XMLCodec。
func WithCodec(c codec.Codec) Option {
	return func(s *Serializer) { s.codec = c }
}

// WithLogger 为 Serializer 绑定独立的 Logger。
func WithLogger(l *log.MLogger) Option {
	return func(s *Serializer) { s.SetLogger(l) }
}

// WithPool 指定 MarshalBatch 使用的协程池，由调用方负责释放。
func WithPool(p *conc.Pool[[]byte]) Option {
	return func(s *Serializer) { s.pool = p }
}

// WithCompressor 指定保存 .zst 文档时使用的压缩器。
func WithCompressor(c compressor.Compressor) Option {
	return func(s *Serializer) { s.compressor = c }
}

// WithCompressionLevel 设置内部创建的 zstd 压缩器的级别。
func WithCompressionLevel(level int) Option {
	return func(s *Serializer) { s.compressionLevel = level }
}

// WithBatchWorkers 设置内部创建的协程池容量，<= 0 时使用 GOMAXPROCS。
func WithBatchWorkers(n int) Option {
	return func(s *Serializer) { s.batchWorkers = n }
}

// WithIORetry 设置 SaveFile/LoadFile 遇到临时性文件系统错误时的重试次数与首次重试间隔。
func WithIORetry(attempts uint, sleep time.Duration) Option {
	return func(s *Serializer) {
		s.ioAttempts = attempts
		s.ioSleep = sleep
	}
}

// New 创建一个 Serializer。
func New(opts ...Option) *Serializer {
	s := &Serializer{
		ioAttempts: defaultIOAttempts,
		ioSleep:    defaultIOSleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = Default()
	}
	if s.codec == nil {
		s.codec = codec.NewXMLCodec()
	}
	return s
}

// NewFromConfig 按配置创建 Serializer，opts 可以覆盖配置产生的选项。
func NewFromConfig(cfg Config, opts ...Option) (*Serializer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c, err := codec.New(cfg.Codec, codec.Options{Indent: cfg.Indent, MaxDepth: cfg.MaxDepth})
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithCodec(c),
		WithCompressionLevel(cfg.CompressionLevel),
		WithBatchWorkers(cfg.BatchWorkers),
	}
	return New(append(base, opts...)...), nil
}

// Registry 返回 Serializer 使用的 Registry。
func (s *Serializer) Registry() *Registry {
	return s.registry
}

// Codec 返回 Serializer 使用的文本编码。
func (s *Serializer) Codec() codec.Codec {
	return s.codec
}

// Marshal 将 object 序列化为以 rootName 为根元素的文档。
func (s *Serializer) Marshal(rootName string, object any) ([]byte, error) {
	start := time.Now()
	typeName := s.typeLabel(object)

	data, err := s.marshal(rootName, object)
	s.observe(metrics.OpSerialize, typeName, start, len(data), err)
	if err != nil {
		s.Logger().Warn("serialize failed",
			log.FieldTypeName(typeName),
			log.FieldCodec(s.codec.Name()),
			zap.String("root", rootName),
			zap.Error(err))
		return nil, err
	}
	s.Logger().Debug("serialized",
		log.FieldTypeName(typeName),
		log.FieldCodec(s.codec.Name()),
		zap.Int("bytes", len(data)))
	return data, nil
}

func (s *Serializer) marshal(rootName string, object any) ([]byte, error) {
	root, err := s.registry.encode(rootName, object)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.codec.Encode(&buf, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Serialize 将 object 序列化后写入 w；只有完整渲染成功时才会写入。
func (s *Serializer) Serialize(w io.Writer, rootName string, object any) error {
	if w == nil {
		return merr.WrapErrParameterInvalidMsg("serialize: writer is nil")
	}
	data, err := s.Marshal(rootName, object)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return merr.WrapErrIoFailed(rootName, err)
	}
	return nil
}

// Unmarshal 解析 data，并根据根节点的 "type" 属性重建对象。
func (s *Serializer) Unmarshal(data []byte) (any, error) {
	start := time.Now()
	typeName := unknownTypeLabel

	object, err := func() (any, error) {
		root, err := s.codec.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		if name := root.StringPropertyOr(TypeProperty, ""); name != "" {
			if _, lerr := s.registry.LookupName(name); lerr == nil {
				typeName = name
			}
		}
		return s.registry.DecodeObject(root)
	}()

	s.observe(metrics.OpDeserialize, typeName, start, len(data), err)
	if err != nil {
		s.Logger().Warn("deserialize failed",
			log.FieldTypeName(typeName),
			log.FieldCodec(s.codec.Name()),
			zap.Int("bytes", len(data)),
			zap.Error(err))
		return nil, err
	}
	s.Logger().Debug("deserialized",
		log.FieldTypeName(typeName),
		log.FieldCodec(s.codec.Name()),
		zap.Int("bytes", len(data)))
	return object, nil
}

// Deserialize 从 r 读取完整文档并重建对象。
func (s *Serializer) Deserialize(r io.Reader) (any, error) {
	if r == nil {
		return nil, merr.WrapErrParameterInvalidMsg("deserialize: reader is nil")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, merr.WrapErrIoFailed("deserialize", err)
	}
	return s.Unmarshal(data)
}

// DeserializeAs 与 Deserialize 相同，但要求结果为 T，否则返回 ErrUnexpectedType。
func DeserializeAs[T any](s *Serializer, r io.Reader) (T, error) {
	object, err := s.Deserialize(r)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](object)
}

// UnmarshalAs 与 Unmarshal 相同，但要求结果为 T，否则返回 ErrUnexpectedType。
func UnmarshalAs[T any](s *Serializer, data []byte) (T, error) {
	object, err := s.Unmarshal(data)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](object)
}

func as[T any](object any) (T, error) {
	typed, ok := object.(T)
	if !ok {
		var zero T
		return zero, merr.WrapErrUnexpectedType(reflect.TypeFor[T]().String(), object)
	}
	return typed, nil
}

// getCompressor 返回保存 .zst 文档时使用的压缩器，未指定时为内部创建的 zstd 压缩器。
func (s *Serializer) getCompressor() (compressor.Compressor, error) {
	if s.compressor != nil {
		return s.compressor, nil
	}
	zc, err := s.getZstd()
	if err != nil {
		return nil, err
	}
	return zc, nil
}

// getZstd 返回用于解压 zstd 帧的压缩器。外部注入的压缩器不是 zstd 时单独创建一个。
func (s *Serializer) getZstd() (*compressor.ZstdCompressor, error) {
	s.zstdOnce.Do(func() {
		if zc, ok := s.compressor.(*compressor.ZstdCompressor); ok {
			s.zstd = zc
			return
		}
		zc, err := compressor.NewZstdCompressor(compressor.WithLevel(s.compressionLevel))
		if err != nil {
			s.zstdErr = err
			return
		}
		s.zstd = zc
		s.ownZstd = true
	})
	return s.zstd, s.zstdErr
}

// BatchItem 为 MarshalBatch 的一个输入。
type BatchItem struct {
	RootName string
	Object   any
}

// MarshalBatch 在协程池上并发执行多个独立的 Marshal 调用，结果与 items 一一对应。
// 单个调用内部仍是单线程的；任一调用失败时返回合并后的错误，对应位置的结果为 nil。
func (s *Serializer) MarshalBatch(items []BatchItem) ([][]byte, error) {
	if len(items) == 0 {
		return nil, nil
	}
	pool := s.getPool()

	futures := make([]*conc.Future[[]byte], len(items))
	for i, item := range items {
		futures[i] = pool.Submit(func() ([]byte, error) {
			return s.Marshal(item.RootName, item.Object)
		})
	}

	results := make([][]byte, len(items))
	errs := make([]error, 0)
	for i, f := range futures {
		data, err := f.Await()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results[i] = data
	}
	return results, merr.Combine(errs...)
}

func (s *Serializer) getPool() *conc.Pool[[]byte] {
	s.poolOnce.Do(func() {
		if s.pool != nil {
			return
		}
		// 单个 Proxy 的 panic 只让对应的批量项失败，不影响整个进程。
		if s.batchWorkers > 0 {
			s.pool = conc.NewPool[[]byte](s.batchWorkers, conc.WithPreAlloc(true), conc.WithConcealPanic(true))
		} else {
			s.pool = conc.NewDefaultPool[[]byte](conc.WithConcealPanic(true))
		}
		s.ownPool = true
	})
	return s.pool
}

// Close 释放 Serializer 内部创建的协程池与压缩器；外部注入的资源由调用方负责。
func (s *Serializer) Close() {
	if s.ownPool && s.pool != nil {
		s.pool.Release()
	}
	if s.ownZstd && s.zstd != nil {
		s.zstd.Close()
	}
}

func (s *Serializer) typeLabel(object any) string {
	if name, ok := s.registry.typeNameOf(object); ok {
		return name
	}
	return unknownTypeLabel
}

func (s *Serializer) observe(op, typeName string, start time.Time, size int, err error) {
	status := metrics.SuccessLabel
	if err != nil {
		status = metrics.FailLabel
	}
	codecName := s.codec.Name()
	metrics.SerializationOpCount.WithLabelValues(op, typeName, codecName, status).Inc()
	metrics.SerializationLatency.WithLabelValues(op, codecName).
		Observe(float64(time.Since(start).Microseconds()) / 1000)
	if err == nil {
		metrics.SerializationDocumentBytes.WithLabelValues(op, codecName).Observe(float64(size))
	}
}

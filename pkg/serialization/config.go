package serialization

import (
	"github.com/lk2023060901/xmlserial-go/pkg/serialization/codec"
	"github.com/lk2023060901/xmlserial-go/pkg/util/merr"
	"github.com/lk2023060901/xmlserial-go/pkg/util/viper"
)

// ConfigKey 为配置文件中序列化相关配置所在的顶层 key。
const ConfigKey = "serialization"

// Config 用于序列化相关配置（yaml/json）。
type Config struct {
	// Codec 为文本编码名称，可选 xml 或 json。
	Codec string `json:"codec" mapstructure:"codec"`
	// Indent 为渲染时使用的缩进，空字符串表示紧凑输出。
	Indent string `json:"indent" mapstructure:"indent"`
	// MaxDepth 为解析时允许的最大嵌套深度。
	MaxDepth int `json:"maxDepth" mapstructure:"maxDepth"`
	// CompressionLevel 为 .zst 文档的 zstd 压缩级别（1~4），0 表示默认级别。
	CompressionLevel int `json:"compressionLevel" mapstructure:"compressionLevel"`
	// BatchWorkers 为 MarshalBatch 使用的协程数，0 表示 GOMAXPROCS。
	BatchWorkers int `json:"batchWorkers" mapstructure:"batchWorkers"`
}

// DefaultConfig 返回缺省配置：带制表符缩进的 XML。
func DefaultConfig() Config {
	return Config{
		Codec:    codec.NameXML,
		Indent:   codec.DefaultIndent,
		MaxDepth: codec.DefaultMaxDepth,
	}
}

// Validate 检查配置是否合法。
func (c Config) Validate() error {
	switch c.Codec {
	case codec.NameXML, codec.NameJSON:
	default:
		return merr.WrapErrParameterInvalidMsg("serialization.codec must be %q or %q, got %q",
			codec.NameXML, codec.NameJSON, c.Codec)
	}
	if c.MaxDepth < 0 {
		return merr.WrapErrParameterInvalidRange(0, codec.DefaultMaxDepth*1024, c.MaxDepth, "serialization.maxDepth")
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 4 {
		return merr.WrapErrParameterInvalidRange(0, 4, c.CompressionLevel, "serialization.compressionLevel")
	}
	if c.BatchWorkers < 0 {
		return merr.WrapErrParameterInvalidMsg("serialization.batchWorkers must not be negative, got %d", c.BatchWorkers)
	}
	return nil
}

// SetDefaults 将缺省值写入 v，使 XMLSERIAL_SERIALIZATION_* 环境变量对每个配置项都能生效。
func SetDefaults(v *viper.Config) {
	def := DefaultConfig()
	v.SetDefault(ConfigKey+".codec", def.Codec)
	v.SetDefault(ConfigKey+".indent", def.Indent)
	v.SetDefault(ConfigKey+".maxDepth", def.MaxDepth)
	v.SetDefault(ConfigKey+".compressionLevel", def.CompressionLevel)
	v.SetDefault(ConfigKey+".batchWorkers", def.BatchWorkers)
}

// ConfigFrom 从 v 的 "serialization" 节读取配置，缺失的配置项使用缺省值。
func ConfigFrom(v *viper.Config) (Config, error) {
	SetDefaults(v)
	wrapper := struct {
		Serialization Config `mapstructure:"serialization"`
	}{Serialization: DefaultConfig()}
	if err := v.Unmarshal(&wrapper); err != nil {
		return Config{}, merr.WrapErrParameterInvalidMsg("decode serialization config: %s", err.Error())
	}
	cfg := wrapper.Serialization
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig 从 YAML/JSON 文件加载配置，path 为空时只使用缺省值与环境变量。
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	if path != "" {
		if err := v.LoadFile(path); err != nil {
			return Config{}, merr.WrapErrIoFailed(path, err)
		}
	}
	return ConfigFrom(v)
}

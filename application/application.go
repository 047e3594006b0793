package application

import (
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lk2023060901/xmlserial-go/internal/plugins/onnx"
	zlog "github.com/lk2023060901/xmlserial-go/pkg/log"
	"github.com/lk2023060901/xmlserial-go/pkg/metrics"
	"github.com/lk2023060901/xmlserial-go/pkg/mm"
	"github.com/lk2023060901/xmlserial-go/pkg/serialization"
	zviper "github.com/lk2023060901/xmlserial-go/pkg/util/viper"
)

const (
	defaultConfigPath = "./config.yaml"
	configPathEnv     = "XMLSERIAL_CONFIG_FILE_PATH"

	// serializationLoggerName 为 "logging" 节中 Serializer 使用的 Logger 名称。
	serializationLoggerName = "serialization"
)

// Application is the runtime container of an xmlserial process.
// It owns configuration, loggers and the serializer built on the frozen default registry.
type Application struct {
	args       []string
	plugins    []func()
	registerer prometheus.Registerer

	cfg        *zviper.Config
	loggers    map[string]*zlog.MLogger
	serializer *serialization.Serializer
}

// Option configures an Application.
type Option func(*Application)

// WithArgs overrides the command-line arguments, os.Args[1:] by default.
func WithArgs(args []string) Option {
	return func(a *Application) { a.args = args }
}

// WithPlugins appends extra registration entry points run before the registry is frozen.
func WithPlugins(plugins ...func()) Option {
	return func(a *Application) { a.plugins = append(a.plugins, plugins...) }
}

// WithRegisterer sets where metrics are registered, prometheus.DefaultRegisterer by default.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(a *Application) { a.registerer = r }
}

// New creates a new Application instance.
func New(opts ...Option) *Application {
	a := &Application{
		args:       os.Args[1:],
		plugins:    []func(){mm.RegisterSerializationProxies, onnx.RegisterSerializationProxies},
		registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run is the entry of an xmlserial application.
// It loads the configuration file using the following priority:
//  1. Default: ./config.yaml (optional)
//  2. Env: XMLSERIAL_CONFIG_FILE_PATH
//  3. CLI: --config <path> or --config=<path>
//
// then initializes logging and metrics, runs every plugin registration,
// freezes the default registry and builds the Serializer.
func (a *Application) Run() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initLogging(); err != nil {
		return err
	}
	metrics.Register(a.registerer)

	for _, register := range a.plugins {
		register()
	}
	registry := serialization.Default()
	registry.Freeze()

	serCfg, err := serialization.ConfigFrom(a.cfg)
	if err != nil {
		return fmt.Errorf("load serialization config: %w", err)
	}
	a.serializer, err = serialization.NewFromConfig(serCfg,
		serialization.WithRegistry(registry),
		serialization.WithLogger(a.Logger(serializationLoggerName)))
	if err != nil {
		return fmt.Errorf("create serializer: %w", err)
	}

	zlog.Info("application started",
		zlog.FieldCodec(serCfg.Codec),
		zap.Strings("types", registry.TypeNames()))
	return nil
}

// Close releases resources created by Run.
func (a *Application) Close() {
	if a.serializer != nil {
		a.serializer.Close()
	}
	_ = zlog.Sync()
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// Serializer returns the serializer built by Run.
func (a *Application) Serializer() *serialization.Serializer {
	return a.serializer
}

// Logger returns a named logger created from configuration.
// If the name is unknown, it falls back to the global logger.
func (a *Application) Logger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return &zlog.MLogger{Logger: zlog.L()}
}

// loadConfig resolves config file path and loads it via viper wrapper.
// A missing default config file is not an error; an explicit one must exist.
func (a *Application) loadConfig() (*zviper.Config, error) {
	configPath := defaultConfigPath
	explicit := false

	if envPath := os.Getenv(configPathEnv); envPath != "" {
		configPath = envPath
		explicit = true
	}

	for i := 0; i < len(a.args); i++ {
		arg := a.args[i]
		if arg == "--config" {
			if i+1 >= len(a.args) {
				return nil, fmt.Errorf("missing value after --config")
			}
			configPath = a.args[i+1]
			explicit = true
			i++
			continue
		}
		if strings.HasPrefix(arg, "--config=") {
			if val := strings.TrimPrefix(arg, "--config="); val != "" {
				configPath = val
				explicit = true
			}
			continue
		}
	}

	cfg := zviper.New()
	if !explicit {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return cfg, nil
		}
	}
	if err := cfg.LoadFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file %q: %w", configPath, err)
	}

	return cfg, nil
}

// initLogging initializes global and module-level loggers.
func (a *Application) initLogging() error {
	if err := a.initGlobalLoggerFromEnv(); err != nil {
		return err
	}
	if err := a.initModuleLoggersFromConfig(); err != nil {
		return err
	}
	return nil
}

// initGlobalLoggerFromEnv configures the process-wide logger based on XMLSERIAL_LOG_* env vars.
//
// Priority:
//   - XMLSERIAL_LOG_ENABLE: "1"/"true" to enable outputs; others treated as disabled.
//   - XMLSERIAL_LOG_LEVEL: log level (default "info").
//   - XMLSERIAL_LOG_STDOUT: whether to log to stdout (default false).
//   - XMLSERIAL_LOG_FILE_DIR: log directory.
//   - XMLSERIAL_LOG_FILE: log file name (empty means no file).
//   - XMLSERIAL_LOG_FORMAT: log format ("text" or "json", default "text").
func (a *Application) initGlobalLoggerFromEnv() error {
	enabled := getenvBool("XMLSERIAL_LOG_ENABLE", false)

	cfg := &zlog.Config{
		Level:  getenvDefault("XMLSERIAL_LOG_LEVEL", "info"),
		Format: getenvDefault("XMLSERIAL_LOG_FORMAT", "text"),
		Stdout: getenvBool("XMLSERIAL_LOG_STDOUT", false),
		File: zlog.FileLogConfig{
			RootPath: getenvDefault("XMLSERIAL_LOG_FILE_DIR", ""),
			Filename: getenvDefault("XMLSERIAL_LOG_FILE", ""),
		},
	}

	// When not enabled, direct all outputs to a discarded sink.
	if !enabled {
		cfg.Stdout = false
		cfg.File.Filename = ""
	}

	logger, props, err := zlog.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("init global logger from env: %w", err)
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggersFromConfig creates named loggers from YAML config under "logging" key.
//
// Example:
//
//	logging:
//	  serialization:
//	    level: debug
//	    stdout: true
//	    file:
//	      rootpath: ./logs
//	      filename: serialization.log
func (a *Application) initModuleLoggersFromConfig() error {
	if a.cfg == nil {
		return nil
	}

	raw := make(map[string]zlog.Config)
	if err := a.cfg.UnmarshalKey("logging", &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	a.loggers = make(map[string]*zlog.MLogger, len(raw))
	for name, lc := range raw {
		cfgCopy := lc
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return fmt.Errorf("init module logger %q: %w", name, err)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger.Named(name)}
	}

	return nil
}

func getenvDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getenvBool(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

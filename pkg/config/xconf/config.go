package xconf

import "github.com/knadh/koanf/v2"

// Format 配置文件格式
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 配置实例。所有方法并发安全，Reload 替换整个配置树。
type Config interface {
	// Client 返回当前的 koanf 实例，Reload 之后需要重新获取
	Client() *koanf.Koanf

	// Unmarshal 将 path 下的配置反序列化到 target，path 为空表示整个配置
	Unmarshal(path string, target any) error

	// Reload 重新读取配置文件。从字节数据创建的配置返回 [ErrNotReloadable]
	Reload() error

	// Path 配置文件路径，从字节数据创建时为空
	Path() string

	Format() Format
}

// Option 配置选项
type Option func(*options)

type options struct {
	delim string
	tag   string
}

func defaultOptions() options {
	return options{delim: ".", tag: "koanf"}
}

// WithDelim 设置键分隔符，默认 "."（如 "log.level"）
func WithDelim(delim string) Option {
	return func(o *options) {
		o.delim = delim
	}
}

// WithTag 设置 Unmarshal 使用的结构体标签，默认 "koanf"
func WithTag(tag string) Option {
	return func(o *options) {
		o.tag = tag
	}
}

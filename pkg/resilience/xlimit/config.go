package xlimit

import (
	"fmt"
	"time"

	"github.com/omeyang/xthrottle/pkg/config/xconf"
)

// Config 限流器配置
//
// Rate 仅用于令牌桶/漏桶（每个 tick 回补或泄漏的单位数），
// Window 仅用于固定窗口/滑动窗口。
type Config struct {
	// Algorithm 限流算法
	Algorithm Algorithm `json:"algorithm" yaml:"algorithm" koanf:"algorithm"`

	// Capacity 容量，0 表示拒绝所有请求
	Capacity uint64 `json:"capacity" yaml:"capacity" koanf:"capacity"`

	// Rate 每个 tick 回补/泄漏的单位数，0 表示永不恢复
	Rate uint64 `json:"rate,omitempty" yaml:"rate,omitempty" koanf:"rate"`

	// Window 窗口时长
	Window time.Duration `json:"window,omitempty" yaml:"window,omitempty" koanf:"window"`

	// Tick 桶类维护周期，0 表示使用 DefaultTick
	Tick time.Duration `json:"tick,omitempty" yaml:"tick,omitempty" koanf:"tick"`

	// StartSaturated 桶类以满占用状态启动
	StartSaturated bool `json:"start_saturated,omitempty" yaml:"start_saturated,omitempty" koanf:"start_saturated"`
}

// DefaultConfig 返回默认配置：容量 10、每秒回补 5 的令牌桶
func DefaultConfig() Config {
	return Config{
		Algorithm: AlgorithmTokenBucket,
		Capacity:  10,
		Rate:      5,
		Tick:      DefaultTick,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if !c.Algorithm.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidAlgorithm, c.Algorithm)
	}
	if c.Tick < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTick, c.Tick)
	}
	if c.Algorithm.Windowed() && c.Window <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidWindow, c.Window)
	}
	return nil
}

// LoadConfig 从 xconf 配置的 path 节点读取限流配置并校验
func LoadConfig(cfg xconf.Config, path string) (Config, error) {
	var c Config
	if err := cfg.Unmarshal(path, &c); err != nil {
		return Config{}, fmt.Errorf("xlimit: load config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

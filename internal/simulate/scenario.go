package simulate

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/omeyang/xthrottle/pkg/config/xconf"
	"github.com/omeyang/xthrottle/pkg/resilience/xlimit"
)

// ScenariosKey 配置文件中场景列表所在的键
const ScenariosKey = "scenarios"

var (
	// ErrNoRequests 表示场景没有请求序列
	ErrNoRequests = errors.New("simulate: scenario has no requests")

	// ErrDuplicateScenario 表示场景名称重复
	ErrDuplicateScenario = errors.New("simulate: duplicate scenario name")

	// ErrUnknownScenario 表示按名称筛选时找不到场景
	ErrUnknownScenario = errors.New("simulate: unknown scenario")

	// ErrNoScenarios 表示配置中缺少场景列表键
	ErrNoScenarios = errors.New("simulate: no scenarios key")
)

// Scenario 一次仿真的参数
//
// Requests[i] 为第 i 秒发出的权重为 1 的请求数。
// Rate 用于令牌桶/漏桶，Window 用于固定窗口/滑动窗口（以仿真秒计）。
// StartSaturated 使桶类从满占用状态开始。
type Scenario struct {
	Name           string           `json:"name" yaml:"name" koanf:"name"`
	Description    string           `json:"description,omitempty" yaml:"description,omitempty" koanf:"description"`
	Algorithm      xlimit.Algorithm `json:"algorithm" yaml:"algorithm" koanf:"algorithm"`
	Capacity       uint64           `json:"capacity" yaml:"capacity" koanf:"capacity"`
	Rate           uint64           `json:"rate,omitempty" yaml:"rate,omitempty" koanf:"rate"`
	Window         time.Duration    `json:"window,omitempty" yaml:"window,omitempty" koanf:"window"`
	StartSaturated bool             `json:"start_saturated,omitempty" yaml:"start_saturated,omitempty" koanf:"start_saturated"`
	Requests       []uint64         `json:"requests" yaml:"requests" koanf:"requests"`
}

// Config 返回以 1s 为一个仿真秒的限流器配置
func (s Scenario) Config() xlimit.Config {
	return xlimit.Config{
		Algorithm:      s.Algorithm,
		Capacity:       s.Capacity,
		Rate:           s.Rate,
		Window:         s.Window,
		StartSaturated: s.StartSaturated,
	}
}

// Validate 校验场景
func (s Scenario) Validate() error {
	if len(s.Requests) == 0 {
		return fmt.Errorf("%w: %s", ErrNoRequests, s.Key())
	}
	if err := s.Config().Validate(); err != nil {
		return fmt.Errorf("simulate: scenario %s: %w", s.Key(), err)
	}
	return nil
}

// Key 返回场景名称，未命名时以输出文件名（不含扩展名）代替
func (s Scenario) Key() string {
	if s.Name != "" {
		return s.Name
	}
	return strings.TrimSuffix(s.FileName(), ".png")
}

// FileName 返回确定性的图表文件名
func (s Scenario) FileName() string {
	switch s.Algorithm {
	case xlimit.AlgorithmTokenBucket:
		return fmt.Sprintf("token_bucket_capacity_%d_refill_%d.png", s.Capacity, s.Rate)
	case xlimit.AlgorithmLeakyBucket:
		return fmt.Sprintf("leaky_bucket_%d_leak_%d.png", s.Capacity, s.Rate)
	case xlimit.AlgorithmFixedWindow, xlimit.AlgorithmSlidingWindow:
		return fmt.Sprintf("%s_%d_%s.png", s.Algorithm, s.Capacity, seconds(s.Window))
	default:
		return fmt.Sprintf("%s_%d.png", s.Algorithm, s.Capacity)
	}
}

// Title 返回图表标题
func (s Scenario) Title() string {
	if s.Description == "" {
		return s.Key()
	}
	return s.Key() + ": " + s.Description
}

// YMax 返回 y 轴上限：容量与单秒最大请求数中的较大者
func (s Scenario) YMax() uint64 {
	return max(s.Capacity, slices.Max(append([]uint64{0}, s.Requests...)))
}

// seconds 将窗口格式化为秒数，整数秒不带小数
func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

var (
	spiky      = []uint64{2, 3, 7, 3, 3, 5, 1, 12, 3, 3}
	balanced   = []uint64{40, 40, 40, 40, 40, 120, 40, 40, 40, 40}
	steady     = []uint64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5}
	aggressive = []uint64{60, 60, 60, 60, 60, 60, 60, 60, 60, 60}
)

// DefaultScenarios 返回内置场景：四个令牌桶、四个漏桶（满桶启动）以及窗口类场景
func DefaultScenarios() []Scenario {
	bucket := func(alg xlimit.Algorithm, capacity, rate uint64, reqs []uint64, desc string) Scenario {
		s := Scenario{
			Description: desc,
			Algorithm:   alg,
			Capacity:    capacity,
			Rate:        rate,
			Requests:    slices.Clone(reqs),
		}
		// 漏桶从满桶开始，首批请求需等待泄漏
		s.StartSaturated = alg == xlimit.AlgorithmLeakyBucket
		s.Name = s.Key()
		return s
	}
	window := func(alg xlimit.Algorithm, capacity uint64, w time.Duration, reqs []uint64, desc string) Scenario {
		s := Scenario{
			Description: desc,
			Algorithm:   alg,
			Capacity:    capacity,
			Window:      w,
			Requests:    slices.Clone(reqs),
		}
		s.Name = s.Key()
		return s
	}

	return []Scenario{
		bucket(xlimit.AlgorithmTokenBucket, 10, 5, spiky, "low refill rate, spiky requests"),
		bucket(xlimit.AlgorithmTokenBucket, 100, 50, balanced, "medium refill rate, mostly balanced requests"),
		bucket(xlimit.AlgorithmTokenBucket, 20, 2, steady, "slow refill rate, aggressive requests"),
		bucket(xlimit.AlgorithmTokenBucket, 50, 50, aggressive, "equal refill rate, aggressive requests"),

		bucket(xlimit.AlgorithmLeakyBucket, 10, 5, spiky, "low leak rate, spiky requests"),
		bucket(xlimit.AlgorithmLeakyBucket, 100, 50, balanced, "high capacity, mostly balanced requests"),
		bucket(xlimit.AlgorithmLeakyBucket, 20, 2, steady, "slow leak rate, aggressive requests"),
		bucket(xlimit.AlgorithmLeakyBucket, 50, 50, aggressive, "equal leak rate, aggressive requests"),

		window(xlimit.AlgorithmFixedWindow, 5, time.Second, spiky, "small window, spiky requests"),
		window(xlimit.AlgorithmFixedWindow, 100, 2*time.Second, balanced, "wide window, mostly balanced requests"),
		window(xlimit.AlgorithmSlidingWindow, 3, 2*time.Second, spiky, "small log, spiky requests"),
		window(xlimit.AlgorithmSlidingWindow, 100, 2*time.Second, balanced, "wide log, mostly balanced requests"),
	}
}

// LoadScenarios 从配置的 scenarios 键读取场景列表并校验
func LoadScenarios(cfg xconf.Config) ([]Scenario, error) {
	if !cfg.Exists(ScenariosKey) {
		return nil, fmt.Errorf("%w: %q", ErrNoScenarios, ScenariosKey)
	}
	var scenarios []Scenario
	if err := cfg.Unmarshal(ScenariosKey, &scenarios); err != nil {
		return nil, fmt.Errorf("simulate: load scenarios: %w", err)
	}
	for i := range scenarios {
		if scenarios[i].Name == "" {
			scenarios[i].Name = scenarios[i].Key()
		}
	}
	if err := validateAll(scenarios); err != nil {
		return nil, err
	}
	return scenarios, nil
}

func validateAll(scenarios []Scenario) error {
	seen := make(map[string]struct{}, len(scenarios))
	for _, s := range scenarios {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, ok := seen[s.Key()]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateScenario, s.Key())
		}
		seen[s.Key()] = struct{}{}
	}
	return nil
}

// Filter 按名称筛选场景，names 为空时返回全部
func Filter(scenarios []Scenario, names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return scenarios, nil
	}

	byName := make(map[string]Scenario, len(scenarios))
	for _, s := range scenarios {
		byName[s.Key()] = s
	}

	out := make([]Scenario, 0, len(names))
	for _, name := range names {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
		}
		out = append(out, s)
	}
	return out, nil
}

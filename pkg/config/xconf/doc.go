// Package xconf 基于 koanf 的配置加载。
//
// 支持 YAML 与 JSON，按文件扩展名自动识别格式：
//
//	cfg, err := xconf.New("scenarios.yaml")
//	if err != nil {
//	    return err
//	}
//	var scenarios []simulate.Scenario
//	if err := cfg.Unmarshal("scenarios", &scenarios); err != nil {
//	    return err
//	}
//
// 反序列化使用 koanf 默认的 mapstructure 解码钩子，
// "500ms"、"2s" 这类字符串可以直接解码为 time.Duration。
//
// 配置在加载后只读，不提供文件监视与热更新。
package xconf

// Package xconf 基于 koanf 的配置加载，支持 YAML/JSON 文件与字节数据。
//
// # 使用方式
//
//	cfg, err := xconf.New("/etc/agecache/config.yaml")
//	if err != nil {
//		return err
//	}
//	var app AppConfig
//	if err := cfg.Unmarshal("", &app); err != nil {
//		return err
//	}
//
// 从 ConfigMap 等字节数据加载时使用 [NewFromBytes] 并显式指定格式。
//
// # 热更新
//
// [Watch] 监视配置文件所在目录，文件变更后防抖重载并回调。
// 只有从文件创建的 Config 支持 Reload 与 Watch。
package xconf

// Package xredisload 提供以 Redis 为数据源的 xagecache 回源函数。
//
// [Source.Load] 的签名与 xagecache.LoadFunc[string, string] 一致，
// 可直接交给 xagecache.NewLoader：
//
//	client, _ := xredisload.NewClient(xredisload.Config{Addr: "127.0.0.1:6379"})
//	src, _ := xredisload.NewSource(client, xredisload.WithKeyPrefix("user:"))
//	cache := xagecache.New[string, string](1024, xagecache.WithName[string, string]("users"))
//	loader, _ := xagecache.NewLoader(cache, src.Load)
//
// Redis 中不存在的键返回 [ErrKeyNotExist]，它包装了 xagecache.ErrNotFound，
// 因此 Loader 不会对其重试，熔断器也不会将其计为失败。
package xredisload

package configs

import "os"

// Env 环境变量读取的抽象。提供者配置统一通过该接口读取，
// 测试可以用MapEnv替换进程环境，避免全局状态。
type Env interface {
	Get(key string) (string, bool)
}

// OSEnv 读取进程环境变量
type OSEnv struct{}

func (OSEnv) Get(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapEnv 固定映射，用于测试和显式注入
type MapEnv map[string]string

func (m MapEnv) Get(key string) (string, bool) {
	value, ok := m[key]
	return value, ok
}

// OverlayEnv 在基础环境上叠加配置文件的覆盖项。
// 网关用它把selected_module的模型串映射到LLM_MODEL等变量上。
type OverlayEnv struct {
	Base      Env
	Overrides map[string]string
}

func (o OverlayEnv) Get(key string) (string, bool) {
	if value, ok := o.Overrides[key]; ok && value != "" {
		return value, true
	}
	return o.Base.Get(key)
}

package config

import "go.uber.org/fx"

// Module provides Config loaded from the environment only. Commands that
// accept a --config flag supply their own Config with fx.Supply instead.
var Module = fx.Module("config",
	fx.Provide(func() (Config, error) {
		return Load("")
	}),
)

// Package autoload initializes the global logger from the LOG_* environment
// on import. Import for side effects from main packages only.
package autoload

import (
	configx "github.com/mfigueroa/gastobot/pkg/config"
	logx "github.com/mfigueroa/gastobot/pkg/logger"
)

func init() {
	cfg, err := configx.Load[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*cfg)
}

// Package autoload configures the global zerolog logger from LOG_DEBUG,
// LOG_PRETTY_FORMAT and LOG_OUTPUT when imported. It reads the process
// environment only; flags and .env files are not parsed at init time.
package autoload

import (
	"github.com/kelseyhightower/envconfig"
	logx "github.com/tanpawarit/Chative-Caregiver-Assistant/pkg/logger"
)

func init() {
	var conf logx.Config
	if err := envconfig.Process("LOG", &conf); err != nil {
		logx.Init()
		return
	}
	logx.Init(conf)
}

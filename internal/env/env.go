package env

import (
	"github.com/greenstack-labs/envmon-controller/internal/config"
)

var Cfg *config.Config

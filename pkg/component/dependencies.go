package component

import (
	"github.com/spf13/afero"
	"github.com/veesix-networks/radvsup/pkg/config"
	"github.com/veesix-networks/radvsup/pkg/events"
	"github.com/veesix-networks/radvsup/pkg/radvd"
)

type Dependencies struct {
	EventBus events.Bus
	Config   *config.Config
	Metrics  *radvd.Metrics
	Fs       afero.Fs
	Runtime  radvd.ProcessRuntime
}

package sqlgate

import (
	"github.com/sqlgate/sqlgate/bridge"
	"github.com/sqlgate/sqlgate/engine"
)

// Instance is an open bridge over a backing SQL engine.
type Instance struct {
	bridge *bridge.Bridge
}

// Open creates an instance over the given engine.
func Open(e engine.Engine) *Instance {
	return &Instance{
		bridge: bridge.New(e),
	}
}

// OpenDefault creates an instance over the DuckDB engine.
func OpenDefault() *Instance {
	return Open(engine.NewDuckDB())
}

// Bridge returns the instance's handle registry and protocol surface.
func (instance *Instance) Bridge() *bridge.Bridge {
	return instance.bridge
}

// Close finalizes all live statements and closes all connections.
func (instance *Instance) Close() {
	instance.bridge.Shutdown()
}

package rxs

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// namesEnabled mirrors the teacher's package-level SetStructuredLogger
// default-to-off switch (logging.go), but for EngineConfig.NamesEnabled: debug
// naming is a process-wide concern (streams are constructed independently of
// any particular Processor), so the most recently constructed Processor's
// setting wins, matching the single-active-unit model already used by
// currentUnit.
var namesEnabled atomic.Bool

// setNamesEnabled is called by NewProcessor with EngineConfig.NamesEnabled.
func setNamesEnabled(v bool) {
	namesEnabled.Store(v)
}

// debugName returns an operator/source debug name when EngineConfig.NamesEnabled
// is on: a short op label suffixed with 8 hex characters of a fresh UUID, per
// spec.md §6 "Debug names" and grounded on cuemby-warren/nugget-thane-ai-agent's
// use of google/uuid for disambiguating same-kind resources. Returns op
// unchanged when naming is disabled, to avoid the uuid generation cost on the
// common path.
func debugName(op string) string {
	if !namesEnabled.Load() {
		return op
	}
	return op + "-" + uuid.NewString()[:8]
}

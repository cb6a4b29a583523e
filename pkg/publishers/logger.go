package publishers

import "github.com/samvad-hq/openoverheid/pkg/opendata"

// Logger defines the logging surface publishers rely on.
type Logger = opendata.Logger

func ensureLogger(log Logger) Logger { return opendata.EnsureLogger(log) }

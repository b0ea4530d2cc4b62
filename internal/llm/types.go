package llm

import "log/slog"

// LevelTrace is below Debug, used for wire-level payload logging.
// Matches the value used by internal/config.
const LevelTrace = slog.Level(-8)

// Package featureflags gates optional admin shortcuts behind FEATURE_FLAGS.
package featureflags

import (
	"hash/fnv"
	"maps"
	"strconv"
	"strings"
)

// Flags understood by the dispatcher.
const (
	// ComplaintBanShortcut adds a one-tap ban action to complaint notifications.
	ComplaintBanShortcut = "complaint_ban_shortcut"
	// MaintenanceNotices enables the maintenance start/end broadcasts.
	MaintenanceNotices = "maintenance_notices"
)

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "complaint_ban_shortcut=on,maintenance_notices=50%"
type Manager struct {
	flags map[string]string
}

// NewManager parses a comma-separated flag list; malformed pairs are ignored.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled reports whether a flag is on for userID. Values are on/true/1,
// off/false/0, or "N%" for a deterministic per-user rollout.
func (m *Manager) Enabled(name string, userID int64) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil, pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m.flags)
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID int64) map[string]bool {
	out := make(map[string]bool, len(m.Raw()))
	for name := range m.Raw() {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatInt(userID, 10)))
	return int(h.Sum32() % 100)
}

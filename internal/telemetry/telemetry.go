package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/posthog/posthog-go"
)

const posthogHost = "https://us.i.posthog.com"

var (
	client   posthog.Client
	once     sync.Once
	disabled bool
	anonID   string
)

// Init starts the telemetry client. Telemetry stays off without an API key
// or when RECENTLY_NO_TELEMETRY or DO_NOT_TRACK=1 is set.
func Init(apiKey string) {
	once.Do(func() {
		if apiKey == "" || os.Getenv("RECENTLY_NO_TELEMETRY") != "" || os.Getenv("DO_NOT_TRACK") == "1" {
			disabled = true
			return
		}

		anonID = generateAnonID()

		var err error
		client, err = posthog.NewWithConfig(apiKey, posthog.Config{
			Endpoint: posthogHost,
			Interval: 5 * time.Second,
		})
		if err != nil {
			client = nil
			disabled = true
			return
		}
	})
}

// Enabled reports whether events are being sent.
func Enabled() bool {
	return !disabled && client != nil
}

// Close flushes and closes the telemetry client
func Close() {
	if client != nil {
		_ = client.Close()
	}
}

// Track sends an event. It never reports failures.
func Track(event string, properties map[string]interface{}) {
	if !Enabled() {
		return
	}

	props := posthog.NewProperties()
	props.Set("os", runtime.GOOS)
	props.Set("arch", runtime.GOARCH)
	props.Set("version", Version)

	for k, v := range properties {
		props.Set(k, v)
	}

	_ = client.Enqueue(posthog.Capture{
		DistinctId: anonID,
		Event:      event,
		Properties: props,
	})
}

// TrackCommand tracks a CLI command usage
func TrackCommand(command string) {
	Track("command", map[string]interface{}{
		"command": command,
	})
}

// TrackMCPTool tracks an MCP tool usage
func TrackMCPTool(tool string) {
	Track("mcp_tool", map[string]interface{}{
		"tool": tool,
	})
}

// TrackStore records the size of the recent files list, never its contents.
func TrackStore(entries, groups int) {
	Track("store", map[string]interface{}{
		"entries": entries,
		"groups":  groups,
	})
}

// generateAnonID derives a stable identifier for this machine that does not
// reveal the home directory or host name.
func generateAnonID() string {
	home, _ := os.UserHomeDir()
	hostname, _ := os.Hostname()

	data := home + hostname + "recently-salt-v1"
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}

// Version is set by the calling package
var Version = "dev"

// SetVersion sets the version for telemetry events
func SetVersion(v string) {
	Version = v
}

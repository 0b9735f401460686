package config

// SampleConfig returns a fully commented configuration file
func SampleConfig() string {
	return `# catform configuration
version: "1.0"

# Connection to the rendering backend
bridge:
  # websocket endpoint the backend listens on (ws:// or wss://)
  endpoint: "ws://127.0.0.1:8765/bridge"
  # time allowed for the websocket opening handshake
  handshake_timeout: 10s
  # deadline for writing a single frame, 0 disables it
  write_timeout: 5s

# Terminal form
ui:
  # default, high-contrast or minimal
  theme: "default"
  # replace emoji with text symbols
  no_emoji: false

# Output of non-interactive commands (presets, render)
output:
  # text, json or markdown
  default_format: "text"
  # auto, always or never
  color_mode: "auto"

# Report on-disk changes of the selected template, input and schema files
watch:
  enabled: true

logging:
  verbose: false
  # diagnostic log used while the terminal form is open
  file: "~/.cache/catform/catform.log"

# Initial form values
form:
  prettify_default: true
`
}

// MinimalSampleConfig returns a compact configuration with essential settings
func MinimalSampleConfig() string {
	return `version: "1.0"
bridge:
  endpoint: "ws://127.0.0.1:8765/bridge"
ui:
  theme: "default"
`
}

package fetchname

import "time"

// ClientOptions configures a Client. Zero values fall back to Settings,
// which in turn default to the settings file and environment.
type ClientOptions struct {
	Dir            string
	Settings       *Settings
	UserAgent      string
	Referer        string
	Cookie         string
	ConnectTimeout time.Duration
	HTTP3          bool
	Verbose        bool
	LogsDir        string
}

// FetchOptions controls a single download.
type FetchOptions struct {
	Dir        string // overrides the client directory
	Filename   string
	DefaultExt string
	Archive    bool
	Overwrite  bool
	Progress   func(Progress)
}

package config

const SourceFileExt = ".php"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".php", ".phtml", ".inc"}

// Version is reported by `funphp -version`.
const Version = "0.4.0"

// Runtime limits
const (
	DefaultMaxCallDepth = 1000
	DefaultMaxEvalDepth = 10000
	DefaultPrecision    = 14
	DefaultCharset      = "UTF-8"
)

// Scope names
const (
	GlobalFrameName = "{main}"
	GlobalsVarName  = "GLOBALS"
	ServerVarName   = "_SERVER"
)

// DefaultSuperglobals always resolve in the global frame.
var DefaultSuperglobals = []string{
	"GLOBALS", "_SERVER", "_GET", "_POST", "_COOKIE", "_SESSION", "_ENV", "_REQUEST", "_FILES",
}

// Warning reporting modes
const (
	WarningsReport = "report"
	WarningsSilent = "silent"
)

// Session defaults
const (
	DefaultSessionName = "PHPSESSID"
	SessionVarName     = "_SESSION"
)

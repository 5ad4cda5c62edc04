package version

// Version wird beim Build ueber -ldflags gesetzt
var Version = "0.0.0"

package hearthd

// Version is the hearthd release version, overridable at link time.
var Version = "0.4.0"

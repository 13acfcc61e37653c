package version

// Protocol is the version string exchanged during the LOGIN handshake.
// Clients must present exactly this string; there is no backward
// compatibility between protocol versions.
const Protocol = "1.4.2"

func Get() string {
	return Protocol
}

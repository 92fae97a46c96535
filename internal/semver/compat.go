package semver

// A handful of version and requirement strings in the historical dump
// predate crates.io's strict validation and no longer parse. The alias
// tables below cover the known cases; anything else fails the load.

var versionAlias = map[string]string{
	"0.0.1-001":      "0.0.1-1",
	"0.3.0-alpha.01": "0.3.0-alpha.1",
	"0.4.0-alpha.00": "0.4.0-alpha.0",
	"0.4.0-alpha.01": "0.4.0-alpha.1",
}

var reqAlias = map[string]string{
	"^0-.11.0":     "^0.11.0",
	"^0.1-alpha.0": "^0.1.0-alpha.0",
	"^0.51-oldsyn": "^0.51.0-oldsyn",
	"~2.0-2.2":     ">=2.0, <=2.2",
}

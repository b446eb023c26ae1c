// Package grove carries module-wide metadata shared by the CLI and
// embedding programs.
package grove

// Version is the semantic version reported by the CLI.
const Version = "0.2.0"

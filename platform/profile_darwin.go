//go:build darwin
// +build darwin

package platform

import (
	"fmt"
	"strings"

	"github.com/mcpadre/birdcage/pathutil"
	"github.com/mcpadre/birdcage/policy"
)

// synthesizeProfile renders a resolved policy as a Seatbelt profile: a
// deny-by-default rule set with one allow rule per canonical filesystem
// entry, a minimal set of system permissions required for any process to
// start, and a network clause.
//
// The profile fails closed: entries that still cannot be resolved at
// synthesis time are omitted rather than widened, and every path is
// escaped for the profile language.
func synthesizeProfile(resolved *policy.ResolvedPolicy) string {
	var sb strings.Builder

	sb.WriteString("(version 1)\n")
	sb.WriteString(";; Generated by birdcage\n\n")

	sb.WriteString("(deny default)\n\n")

	// Minimum permissions for stable process execution. Everything else
	// comes from the policy.
	sb.WriteString(";; Essential system permissions\n")
	sb.WriteString("(allow process-fork)\n")
	sb.WriteString("(allow signal (target same-sandbox))\n")
	sb.WriteString("(allow process-info* (target same-sandbox))\n")
	sb.WriteString("(allow file-read-metadata)\n")
	sb.WriteString("(allow sysctl-read)\n")
	sb.WriteString("(allow mach-lookup\n")
	sb.WriteString("  (global-name \"com.apple.system.logger\")\n")
	sb.WriteString("  (global-name \"com.apple.system.notification_center\")\n")
	sb.WriteString("  (global-name \"com.apple.system.opendirectoryd.libinfo\")\n")
	sb.WriteString(")\n")
	sb.WriteString("(allow file-read* (subpath \"/usr/share\"))\n")
	sb.WriteString("(allow file-read* file-write-data file-ioctl\n")
	sb.WriteString("  (literal \"/dev/null\")\n")
	sb.WriteString("  (literal \"/dev/zero\")\n")
	sb.WriteString("  (literal \"/dev/random\")\n")
	sb.WriteString("  (literal \"/dev/urandom\")\n")
	sb.WriteString("  (literal \"/dev/tty\")\n")
	sb.WriteString(")\n\n")

	sb.WriteString(";; Filesystem grants\n")
	for _, entry := range resolved.Entries {
		writeEntryRules(&sb, entry)
	}
	sb.WriteString("\n")

	sb.WriteString(";; Network\n")
	if resolved.NetworkAllowed {
		sb.WriteString("(allow network*)\n")
		sb.WriteString("(allow system-socket)\n")
	} else {
		sb.WriteString("(deny network*)\n")
	}

	return sb.String()
}

// writeEntryRules emits the allow rules for one policy entry. Entries
// arrive sorted shallow-to-deep and Seatbelt gives later rules
// precedence, so a deeper, more specific grant overrides its parent.
func writeEntryRules(sb *strings.Builder, entry policy.Entry) {
	path := entry.Path
	if entry.Pending {
		// One last resolution attempt; a grant that still has no real
		// location is omitted, never widened.
		resolved, stillPending, _ := pathutil.Canonicalize(entry.Path)
		if stillPending {
			fmt.Fprintf(sb, ";; omitted unresolvable grant: %s\n", escapeProfileString(entry.Path))
			return
		}
		path = resolved
	}

	filter := pathFilter(path)

	fmt.Fprintf(sb, "(allow file-read* %s)\n", filter)
	if !entry.Mode.CanWrite() {
		fmt.Fprintf(sb, "(deny file-write* %s)\n", filter)
	}
	if entry.Mode.CanWrite() {
		fmt.Fprintf(sb, "(allow file-write* %s)\n", filter)
	}
	if entry.Mode.CanExecute() {
		fmt.Fprintf(sb, "(allow process-exec* %s)\n", filter)
	} else {
		fmt.Fprintf(sb, "(deny process-exec* %s)\n", filter)
	}
}

// pathFilter picks the Seatbelt path filter form: subtree matching for
// directories, exact matching for files. Paths are canonical, so no
// pattern forms are needed.
func pathFilter(path string) string {
	if pathutil.IsDir(path) {
		return fmt.Sprintf("(subpath \"%s\")", escapeProfileString(path))
	}
	return fmt.Sprintf("(literal \"%s\")", escapeProfileString(path))
}

// escapeProfileString escapes a path for a double-quoted Seatbelt
// profile string literal.
func escapeProfileString(s string) string {
	var out strings.Builder
	for _, r := range s {
		switch r {
		case '"', '\\':
			out.WriteByte('\\')
			out.WriteRune(r)
		case '\n':
			out.WriteString("\\n")
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}

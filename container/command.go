package container

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

// SplitCommand splits a command line into an argument vector using shell
// word rules (quotes, escapes). The result is never handed to a shell.
func SplitCommand(command string) ([]string, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, invalidArg("command: %v", err)
	}
	if len(argv) == 0 {
		return nil, invalidArg("command is empty")
	}
	return argv, nil
}

// PipOptions configures the package installer.
type PipOptions struct {
	// IndexURL is the package index mirror.
	IndexURL string

	// TrustedHost is passed to --trusted-host; derived from IndexURL when empty.
	TrustedHost string

	// Timeout is the per-request socket timeout in seconds.
	Timeout int
}

// DefaultPipOptions mirrors PyPI through TUNA with a generous timeout.
func DefaultPipOptions() PipOptions {
	return PipOptions{
		IndexURL:    "https://pypi.tuna.tsinghua.edu.cn/simple",
		TrustedHost: "pypi.tuna.tsinghua.edu.cn",
		Timeout:     100,
	}
}

// requirementRe accepts a PEP 508 style name with optional extras and
// version constraints, e.g. "pandas", "requests[socks]>=2.31,<3".
var requirementRe = regexp.MustCompile(
	`^[A-Za-z0-9][A-Za-z0-9._-]*` +
		`(\[[A-Za-z0-9._-]+(,[A-Za-z0-9._-]+)*\])?` +
		`((==|>=|<=|~=|!=|>|<)[A-Za-z0-9.*+!_-]+(,(==|>=|<=|~=|!=|>|<)[A-Za-z0-9.*+!_-]+)*)?$`)

// PipInstallArgs builds the pip argument vector for a whitespace separated
// list of requirements. Each requirement is validated so that nothing can be
// smuggled in as an extra option or shell syntax.
func PipInstallArgs(packages string, opts PipOptions) ([]string, error) {
	reqs := strings.Fields(packages)
	if len(reqs) == 0 {
		return nil, invalidArg("packages: no packages given")
	}
	for _, r := range reqs {
		if !requirementRe.MatchString(r) {
			return nil, invalidArg("packages: %q is not a valid requirement", r)
		}
	}

	argv := append([]string{"pip", "install"}, reqs...)
	if opts.IndexURL != "" {
		argv = append(argv, "-i", opts.IndexURL)
	}
	if opts.Timeout > 0 {
		argv = append(argv, "--default-timeout="+strconv.Itoa(opts.Timeout))
	}
	if host := opts.trustedHost(); host != "" {
		argv = append(argv, "--trusted-host", host)
	}
	return argv, nil
}

func (o PipOptions) trustedHost() string {
	if o.TrustedHost != "" {
		return o.TrustedHost
	}
	rest, ok := strings.CutPrefix(o.IndexURL, "https://")
	if !ok {
		rest, ok = strings.CutPrefix(o.IndexURL, "http://")
	}
	if !ok {
		return ""
	}
	host, _, _ := strings.Cut(rest, "/")
	return host
}

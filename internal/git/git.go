// Package git wraps the git command line for probing and mutating component
// working copies. Every repository-scoped call names its target directory
// explicitly via `git -C`, so concurrent callers can never interfere through
// a shared process working directory.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Client invokes the git CLI. The zero value is not usable; construct with
// the binary path from config.
type Client struct {
	GitPath string
	Verbose bool
}

// NewClient returns a Client invoking the given git binary.
func NewClient(gitPath string, verbose bool) *Client {
	if gitPath == "" {
		gitPath = "git"
	}
	return &Client{GitPath: gitPath, Verbose: verbose}
}

// Validate checks that the git binary is available.
func (c *Client) Validate() error {
	out, err := exec.Command(c.GitPath, "--version").Output()
	if err != nil {
		return fmt.Errorf("git: CLI not found at %q: %w", c.GitPath, err)
	}
	if c.Verbose {
		fmt.Fprintf(os.Stderr, "[git] version: %s", string(out))
	}
	return nil
}

// run executes git with -C dir and returns trimmed stdout. A non-zero exit
// returns an error carrying trimmed stderr. dir may be empty for commands
// that are not repository-scoped (clone).
func (c *Client) run(ctx context.Context, dir string, args ...string) (string, error) {
	full := args
	if dir != "" {
		full = append([]string{"-C", dir}, args...)
	}
	cmd := exec.CommandContext(ctx, c.GitPath, full...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if c.Verbose {
		fmt.Fprintf(os.Stderr, "[git] running: %s %s\n", c.GitPath, strings.Join(full, " "))
	}

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return strings.TrimSpace(stdout.String()), fmt.Errorf("git %s: %w: %s", args[0], err, msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// IsWorkTree reports whether dir is inside a git working tree.
func (c *Client) IsWorkTree(ctx context.Context, dir string) bool {
	out, err := c.run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// ExactTag returns the tag naming the currently checked-out commit exactly.
// ok is false when no tag (or no unambiguous tag) names HEAD; that is not an
// error.
func (c *Client) ExactTag(ctx context.Context, dir string) (tag string, ok bool) {
	out, err := c.run(ctx, dir, "describe", "--tags", "--exact-match")
	if err != nil || out == "" {
		return "", false
	}
	return out, true
}

// TagCommit resolves the commit a tag points to.
func (c *Client) TagCommit(ctx context.Context, dir, tag string) (string, error) {
	return c.run(ctx, dir, "rev-list", "-n", "1", tag)
}

// Head returns the currently checked-out commit.
func (c *Client) Head(ctx context.Context, dir string) (string, error) {
	return c.run(ctx, dir, "rev-parse", "HEAD")
}

// WorkTreeStatus summarizes porcelain status output. Modified covers tracked
// and staged deltas only; untracked paths are reported separately so callers
// can treat them as their own signal.
type WorkTreeStatus struct {
	Modified  bool
	Untracked []string
}

// Status returns the working tree status of dir.
func (c *Client) Status(ctx context.Context, dir string) (WorkTreeStatus, error) {
	out, err := c.run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return WorkTreeStatus{}, err
	}
	var st WorkTreeStatus
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "??") {
			st.Untracked = append(st.Untracked, strings.TrimSpace(line[2:]))
			continue
		}
		st.Modified = true
	}
	return st, nil
}

// CountCommits returns the number of commits in from..to.
func (c *Client) CountCommits(ctx context.Context, dir, from, to string) (int, error) {
	out, err := c.run(ctx, dir, "rev-list", "--count", from+".."+to)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("git: parse rev-list count %q: %w", out, err)
	}
	return n, nil
}

// TagMeta holds the metadata needed for the tag-integrity check. TaggedAt is
// zero for lightweight tags, which expose no creation timestamp.
type TagMeta struct {
	Annotated bool
	TaggedAt  time.Time // when the tag object was created
	CommitAt  time.Time // committer time of the commit the tag points to
}

// InspectTag reads a tag's own metadata plus its target commit time. Callers
// bound this with a short context timeout; a timeout surfaces as an error.
func (c *Client) InspectTag(ctx context.Context, dir, tag string) (TagMeta, error) {
	var meta TagMeta

	out, err := c.run(ctx, dir, "for-each-ref",
		"--format=%(objecttype)|%(taggerdate:unix)", "refs/tags/"+tag)
	if err != nil {
		return meta, err
	}
	objType, taggerUnix, _ := strings.Cut(out, "|")
	if objType == "tag" {
		meta.Annotated = true
		if sec, err := strconv.ParseInt(strings.TrimSpace(taggerUnix), 10, 64); err == nil {
			meta.TaggedAt = time.Unix(sec, 0)
		}
	}

	out, err = c.run(ctx, dir, "log", "-1", "--format=%ct", tag)
	if err != nil {
		return meta, err
	}
	if sec, err := strconv.ParseInt(out, 10, 64); err == nil {
		meta.CommitAt = time.Unix(sec, 0)
	}
	return meta, nil
}

// ShowFileAtRev returns the content of a file as recorded at a revision.
// Git object syntax wants forward slashes regardless of host OS.
func (c *Client) ShowFileAtRev(ctx context.Context, dir, rev, path string) (string, error) {
	return c.run(ctx, dir, "show", rev+":"+strings.ReplaceAll(path, "\\", "/"))
}

// Clone fetches the full repository at url into dest.
func (c *Client) Clone(ctx context.Context, url, dest string) error {
	_, err := c.run(ctx, "", "clone", url, dest)
	return err
}

// Checkout checks out the given revision or tag in dir.
func (c *Client) Checkout(ctx context.Context, dir, rev string) error {
	_, err := c.run(ctx, dir, "checkout", rev)
	return err
}

// AddAll stages every local modification in dir.
func (c *Client) AddAll(ctx context.Context, dir string) error {
	_, err := c.run(ctx, dir, "add", "-A")
	return err
}

// Commit records staged changes. ok is false when there was nothing to
// commit, which callers may treat as success.
func (c *Client) Commit(ctx context.Context, dir, message string) (ok bool, err error) {
	// Nothing staged: diff --cached --quiet exits zero.
	if _, err := c.run(ctx, dir, "diff", "--cached", "--quiet"); err == nil {
		return false, nil
	}
	if _, err := c.run(ctx, dir, "commit", "-m", message); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteTag removes a local tag. Deleting a tag that does not exist is not an
// error.
func (c *Client) DeleteTag(ctx context.Context, dir, tag string) error {
	if !c.TagExists(ctx, dir, tag) {
		return nil
	}
	_, err := c.run(ctx, dir, "tag", "-d", tag)
	return err
}

// CreateTag creates tag at HEAD, replacing any existing tag of the same name
// when force is set.
func (c *Client) CreateTag(ctx context.Context, dir, tag string, force bool) error {
	args := []string{"tag"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, tag)
	_, err := c.run(ctx, dir, args...)
	return err
}

// TagExists reports whether the named tag exists in dir.
func (c *Client) TagExists(ctx context.Context, dir, tag string) bool {
	out, err := c.run(ctx, dir, "tag", "-l", tag)
	return err == nil && out != ""
}

// Unstage resets the index to HEAD without touching the working tree.
func (c *Client) Unstage(ctx context.Context, dir string) error {
	_, err := c.run(ctx, dir, "reset", "HEAD", "--", ".")
	return err
}

// CheckoutAll force-checkouts every tracked path, discarding local edits.
func (c *Client) CheckoutAll(ctx context.Context, dir string) error {
	_, err := c.run(ctx, dir, "checkout", "--", ".")
	return err
}

// ListUntracked enumerates untracked files and directories in dir.
func (c *Client) ListUntracked(ctx context.Context, dir string) ([]string, error) {
	out, err := c.run(ctx, dir, "ls-files", "--others", "--exclude-standard", "--directory")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// RemoveUntracked deletes untracked files and directories. Callers must only
// invoke this after an explicit confirmation; it is never run by default.
func (c *Client) RemoveUntracked(ctx context.Context, dir string) error {
	_, err := c.run(ctx, dir, "clean", "-fd")
	return err
}

package patching

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"strconv"
	"strings"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/logging"
	"github.com/arthur-debert/stager/pkg/types"
)

// DefaultPatchCommand is the external tool CommandPrimitive runs.
const DefaultPatchCommand = "patch"

// CommandPrimitive runs the external patch tool as `patch -g 0 -f -pN`,
// reading the patch from stdin in rootDir. A dry run goes first so a
// rejected patch writes nothing. The tool is always run to completion; the
// context is not used to interrupt it.
type CommandPrimitive struct {
	Command string
	// Fuzz is passed as -F when positive.
	Fuzz int
}

// NewCommandPrimitive returns a CommandPrimitive for command, or for
// DefaultPatchCommand when command is empty.
func NewCommandPrimitive(command string, fuzz int) *CommandPrimitive {
	if command == "" {
		command = DefaultPatchCommand
	}
	return &CommandPrimitive{Command: command, Fuzz: fuzz}
}

func (c *CommandPrimitive) Apply(_ context.Context, content []byte, strip types.StripLevel, rootDir string) error {
	args := []string{"-g", "0", "-f", strip.Flag()}
	if c.Fuzz > 0 {
		args = append(args, "-F", strconv.Itoa(c.Fuzz))
	}

	if err := c.run(content, rootDir, append(args, "--dry-run")); err != nil {
		return err
	}
	return c.run(content, rootDir, args)
}

func (c *CommandPrimitive) run(content []byte, dir string, args []string) error {
	logger := logging.GetLogger("patching.command")
	logging.LogCommand(logger, c.Command, args)

	cmd := exec.Command(c.Command, args...)
	cmd.Dir = dir
	cmd.Stdin = bytes.NewReader(content)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	out := strings.TrimSpace(string(output))
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		logger.Debug().Str("output", out).Msg("Patch rejected")
		return rejectf("%s", out)
	}
	return errors.Wrapf(err, errors.ErrFileSystem, "%s failed", c.Command).
		WithDetail("output", out)
}

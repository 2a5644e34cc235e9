package builtin

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/usemin/internal/asset"
	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/stage"
)

func newExecSpec(p Params) (stage.Spec, error) {
	if p.Command == "" {
		return stage.Spec{}, errors.ConfigError("exec stage requires a command").
			WithContext("stage", "exec").
			Build()
	}
	return stage.Ready(Exec(p.Command, p.Args, p.Ext)), nil
}

// Exec pipes every file through an external command: contents on stdin,
// replacement contents from stdout. A non-empty ext renames the file.
func Exec(command string, args []string, ext string) stage.Stage {
	name := "exec:" + command
	return stage.MapFiles(name, func(ctx context.Context, f *asset.File) (*asset.File, error) {
		cmd := exec.CommandContext(ctx, command, args...)
		cmd.Stdin = bytes.NewReader(f.Contents())
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				return nil, fmt.Errorf("%s failed on %s: %w", command, f.Path, err)
			}
			return nil, fmt.Errorf("%s failed on %s: %w: %s", command, f.Path, err, msg)
		}
		return asset.New(replaceExt(f.Path, ext), f.Base, stdout.Bytes()), nil
	})
}

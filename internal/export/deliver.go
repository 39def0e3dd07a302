package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// FileDownloader writes exports into Dir.
type FileDownloader struct {
	Dir string
}

func (d FileDownloader) Deliver(_ context.Context, name string, png []byte) (string, error) {
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(d.Dir, name)
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// CommandSharer opens a share sheet through an external command such as
// termux-share. The PNG is written to a temp file whose path is appended
// to Command.
type CommandSharer struct {
	Command []string
	TempDir string
}

func (s CommandSharer) Deliver(ctx context.Context, name string, png []byte) (string, error) {
	if len(s.Command) == 0 {
		return "", errors.New("share: no command configured")
	}
	dir, err := os.MkdirTemp(s.TempDir, "postframe-share-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", err
	}
	args := append(append([]string(nil), s.Command[1:]...), path)
	if err := run(ctx, exec.CommandContext(ctx, s.Command[0], args...)); err != nil {
		return "", fmt.Errorf("share: %w", err)
	}
	return "shared", nil
}

// CommandClipboard pipes the PNG into a clipboard tool's stdin.
type CommandClipboard struct {
	Command []string
}

func (c CommandClipboard) Deliver(ctx context.Context, _ string, png []byte) (string, error) {
	if len(c.Command) == 0 {
		return "", errors.New("clipboard: no command configured")
	}
	cmd := exec.CommandContext(ctx, c.Command[0], c.Command[1:]...)
	cmd.Stdin = bytes.NewReader(png)
	if err := run(ctx, cmd); err != nil {
		return "", fmt.Errorf("clipboard: %w", err)
	}
	return "clipboard", nil
}

// run maps an interrupted or signalled command, or a cancelled ctx, to
// ErrCancelled.
func run(ctx context.Context, cmd *exec.Cmd) error {
	var out bytes.Buffer
	cmd.Stderr = &out
	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ErrCancelled
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return ErrCancelled
		}
		if exitErr.ExitCode() == 130 {
			return ErrCancelled
		}
		if msg := bytes.TrimSpace(out.Bytes()); len(msg) > 0 {
			return fmt.Errorf("%w: %s", err, msg)
		}
	}
	return err
}

// ClipboardCommand picks wl-copy on Wayland, else xclip, else nothing.
func ClipboardCommand() []string {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		if _, err := exec.LookPath("wl-copy"); err == nil {
			return []string{"wl-copy", "--type", "image/png"}
		}
	}
	if _, err := exec.LookPath("xclip"); err == nil {
		return []string{"xclip", "-selection", "clipboard", "-t", "image/png", "-i"}
	}
	return nil
}

// DetectPlatform reports capabilities from the configured commands. A
// Termux environment counts as mobile.
func DetectPlatform(mobile bool, share, clipboard []string) Platform {
	if os.Getenv("TERMUX_VERSION") != "" {
		mobile = true
	}
	return Platform{
		Mobile:            mobile,
		CanShare:          available(share),
		CanClipboardImage: available(clipboard),
	}
}

func available(cmd []string) bool {
	if len(cmd) == 0 {
		return false
	}
	_, err := exec.LookPath(cmd[0])
	return err == nil
}

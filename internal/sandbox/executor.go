package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/errdefs"

	"gitlab.com/quizcore-2025.net/internal/config"
	"gitlab.com/quizcore-2025.net/internal/core/ports/primary"
	"gitlab.com/quizcore-2025.net/internal/core/ports/secondary"
	"gitlab.com/quizcore-2025.net/internal/domain"
)

const defaultRunTimeout = 10 * time.Second

// Executor runs untrusted code inside throwaway Docker containers. Each
// invocation gets a fresh container with capped memory and CPU and no
// network; the container is removed on return no matter what happened
// inside it.
type Executor struct {
	cli    dockerClient
	cfg    *config.SandboxConfig
	logger primary.Logger
}

var _ secondary.CodeExecutor = (*Executor)(nil)

func NewExecutor(cfg *config.SandboxConfig, logger primary.Logger) (*Executor, error) {
	cli, err := newDockerClient()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSandboxCreation, err)
	}
	return &Executor{cli: cli, cfg: cfg, logger: logger}, nil
}

// Run executes sourceCode once under the given stdin payload. The stdin
// channel is written once and closed; there is no interactive protocol.
func (e *Executor) Run(ctx context.Context, profile domain.LanguageProfile, sourceCode, stdin string) (domain.ExecutionResult, error) {
	if err := e.ensureImage(ctx, profile.Image); err != nil {
		return domain.ExecutionResult{}, err
	}

	pids := e.cfg.PidsLimit
	created, err := e.cli.ContainerCreate(ctx,
		&container.Config{
			Image:           profile.Image,
			Cmd:             []string{"sleep", "infinity"},
			WorkingDir:      e.cfg.WorkspaceDir,
			NetworkDisabled: true,
		},
		&container.HostConfig{
			NetworkMode: "none",
			Resources: container.Resources{
				Memory:    e.cfg.MemoryBytes,
				NanoCPUs:  int64(e.cfg.CPUQuota * 1e9),
				PidsLimit: &pids,
			},
		}, nil, nil, "")
	if err != nil {
		return domain.ExecutionResult{}, fmt.Errorf("%w: %v", ErrSandboxCreation, err)
	}
	containerID := created.ID
	defer e.remove(containerID)

	if err := e.cli.ContainerStart(ctx, containerID, types.ContainerStartOptions{}); err != nil {
		return domain.ExecutionResult{}, fmt.Errorf("%w: %v", ErrSandboxCreation, err)
	}

	if err := e.runCommand(ctx, containerID, "mkdir -p "+shellQuote(e.cfg.WorkspaceDir)); err != nil {
		return domain.ExecutionResult{}, fmt.Errorf("%w: %v", ErrSandboxCreation, err)
	}
	target := path.Join(e.cfg.WorkspaceDir, profile.FileName)
	if err := e.execWithInput(ctx, containerID, "cat > "+shellQuote(target), []byte(sourceCode)); err != nil {
		return domain.ExecutionResult{}, fmt.Errorf("%w: %v", ErrSandboxCreation, err)
	}

	return e.runProgram(ctx, containerID, profile, stdin)
}

func (e *Executor) runProgram(ctx context.Context, containerID string, profile domain.LanguageProfile, stdin string) (domain.ExecutionResult, error) {
	timeout := profile.Timeout
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}

	execResp, err := e.cli.ContainerExecCreate(ctx, containerID, types.ExecConfig{
		Cmd:          []string{"/bin/sh", "-c", profile.RunCommand},
		WorkingDir:   e.cfg.WorkspaceDir,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return domain.ExecutionResult{}, fmt.Errorf("%w: %v", ErrSandboxCreation, err)
	}
	attach, err := e.cli.ContainerExecAttach(ctx, execResp.ID, types.ExecStartCheck{})
	if err != nil {
		return domain.ExecutionResult{}, fmt.Errorf("%w: %v", ErrSandboxCreation, err)
	}
	defer attach.Close()

	var mu sync.Mutex
	var outBuf, errBuf bytes.Buffer
	snapshot := func() domain.ExecutionResult {
		mu.Lock()
		defer mu.Unlock()
		return domain.ExecutionResult{Stdout: outBuf.String(), Stderr: errBuf.String()}
	}

	done := make(chan error, 1)
	go func() {
		done <- Demux(attach.Reader,
			func(p []byte) { mu.Lock(); outBuf.Write(p); mu.Unlock() },
			func(p []byte) { mu.Lock(); errBuf.Write(p); mu.Unlock() })
	}()
	go func() {
		if stdin != "" {
			// Write errors here are expected when the program exits
			// without draining its input.
			_, _ = attach.Conn.Write([]byte(stdin))
		}
		_ = attach.CloseWrite()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		if err != nil {
			e.kill(containerID)
			return snapshot(), fmt.Errorf("failed to read sandbox output: %v", err)
		}
	case <-timer.C:
		e.kill(containerID)
		result := snapshot()
		result.TimedOut = true
		return result, ErrSandboxTimeout
	case <-ctx.Done():
		e.kill(containerID)
		return snapshot(), ctx.Err()
	}

	result := snapshot()
	inspect, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		e.logger.Warn("failed to inspect sandbox exec", "container", containerID, "error", err)
		return result, nil
	}
	if inspect.ExitCode != 0 && result.Stderr == "" {
		result.Stderr = fmt.Sprintf("process exited with status %d", inspect.ExitCode)
	}
	return result, nil
}

// runCommand runs a shell command inside the container and fails on a
// non-zero exit.
func (e *Executor) runCommand(ctx context.Context, containerID, cmdline string) error {
	execResp, err := e.cli.ContainerExecCreate(ctx, containerID, types.ExecConfig{
		Cmd:          []string{"/bin/sh", "-c", cmdline},
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return err
	}
	attach, err := e.cli.ContainerExecAttach(ctx, execResp.ID, types.ExecStartCheck{})
	if err != nil {
		return err
	}
	_, stderr, _ := DemuxBuffered(attach.Reader)
	attach.Close()

	inspect, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return err
	}
	if inspect.ExitCode != 0 {
		return fmt.Errorf("command %q failed: exit=%d stderr=%q", cmdline, inspect.ExitCode, stderr)
	}
	return nil
}

// execWithInput runs a shell command with the given bytes piped to its
// stdin, used to copy the source file into the workspace.
func (e *Executor) execWithInput(ctx context.Context, containerID, cmdline string, input []byte) error {
	execResp, err := e.cli.ContainerExecCreate(ctx, containerID, types.ExecConfig{
		Cmd:          []string{"/bin/sh", "-c", cmdline},
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return err
	}
	attach, err := e.cli.ContainerExecAttach(ctx, execResp.ID, types.ExecStartCheck{})
	if err != nil {
		return err
	}
	if _, err := attach.Conn.Write(input); err != nil {
		attach.Close()
		return err
	}
	_ = attach.CloseWrite()
	_, _, _ = DemuxBuffered(attach.Reader)
	attach.Close()

	inspect, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return err
	}
	if inspect.ExitCode != 0 {
		return fmt.Errorf("command %q failed: exit=%d", cmdline, inspect.ExitCode)
	}
	return nil
}

func (e *Executor) ensureImage(ctx context.Context, image string) error {
	if _, _, err := e.cli.ImageInspectWithRaw(ctx, image); err == nil {
		return nil
	} else if !errdefs.IsNotFound(err) {
		return fmt.Errorf("%w: %v", ErrSandboxCreation, err)
	}

	reader, err := e.cli.ImagePull(ctx, image, types.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSandboxCreation, err)
	}
	defer reader.Close()
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

func (e *Executor) kill(containerID string) {
	if err := e.cli.ContainerKill(context.Background(), containerID, "SIGKILL"); err != nil {
		e.logger.Warn("failed to kill sandbox container", "container", containerID, "error", err)
	}
}

func (e *Executor) remove(containerID string) {
	if err := e.cli.ContainerRemove(context.Background(), containerID, types.ContainerRemoveOptions{Force: true}); err != nil {
		e.logger.Warn("failed to remove sandbox container", "container", containerID, "error", err)
	}
}

package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"text/template"

	"rtunnel/internal/logger"
)

/**
 * Runner executes external programs
 * @description
 * - Package managers, init tools and crontab all go through this interface
 * - Tests substitute a recording fake
 */
type Runner interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

/**
 * Run a command and collect its combined output
 * @param {context.Context} ctx - Cancels the command
 * @param {io.Reader} stdin - Optional standard input, may be nil
 * @param {string} name - Program name or path
 * @param {...string} args - Program arguments
 * @returns {[]byte} Combined stdout and stderr
 * @throws
 * - Start failures and non-zero exit status, annotated with the output
 */
func (ExecRunner) Run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
	logger.Infof("Executing command: %s", CommandLine(name, args))

	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

// CommandLine joins a command for display.
func CommandLine(name string, args []string) string {
	fullCommand := name
	for _, arg := range args {
		fullCommand += " " + arg
	}
	return fullCommand
}

/**
 * Render a text template
 * @param {string} name - Template name used in error messages
 * @param {string} text - Template text
 * @param {interface{}} data - Template data
 * @returns {string} Rendered text
 */
func RenderTemplate(name, text string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	return buf.String(), nil
}

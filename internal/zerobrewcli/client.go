package zerobrewcli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zerobrew/zb-migrate/internal/execshell"
)

const (
	executorMissingMessageConstant     = "zerobrew executor not configured"
	installSubcommandConstant          = "install"
	installFailedErrorTemplateConstant = "zb install %s failed: %s"
	executionFailureReasonTemplate     = "Failed to run zb: %v"
	unknownInstallFailureReasonMessage = "zb reported an error without output"
)

// Stderr fragments that identify a link conflict, where installing would
// overwrite a path already owned by another installed package.
var linkConflictSignatures = []string{
	"link conflict",
	"conflicts with",
	"already exists",
	"would overwrite",
	"already linked",
}

// ErrExecutorMissing indicates the client was constructed without an executor.
var ErrExecutorMissing = errors.New(executorMissingMessageConstant)

// CommandExecutor runs zb commands and returns their captured results.
type CommandExecutor interface {
	ExecuteZerobrew(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// InstallFailedError reports a package Zerobrew refused to install. The
// reason carries the installer's standard error verbatim so it can be
// persisted with the migration outcome. Conflict marks failures caused
// by a file or link collision, which never succeed on retry without
// user action.
type InstallFailedError struct {
	PackageName string
	Reason      string
	Conflict    bool
}

// Error renders the failed installation with the installer's own message.
func (installError *InstallFailedError) Error() string {
	return fmt.Sprintf(installFailedErrorTemplateConstant, installError.PackageName, installError.Reason)
}

// Client wraps the Zerobrew binary behind a typed installer operation.
type Client struct {
	executor CommandExecutor
}

// NewClient validates dependencies and constructs a Zerobrew client.
func NewClient(executor CommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorMissing
	}
	return &Client{executor: executor}, nil
}

// Install installs the named package with Zerobrew. Failures surface as
// *InstallFailedError carrying the reason reported by the installer.
func (client *Client) Install(executionContext context.Context, packageName string) error {
	_, executionError := client.executor.ExecuteZerobrew(executionContext, execshell.CommandDetails{
		Arguments: []string{installSubcommandConstant, packageName},
	})
	if executionError == nil {
		return nil
	}

	failedError := execshell.CommandFailedError{}
	if errors.As(executionError, &failedError) {
		failureReason := strings.TrimSpace(failedError.Result.StandardError)
		if len(failureReason) == 0 {
			failureReason = unknownInstallFailureReasonMessage
		}
		return &InstallFailedError{
			PackageName: packageName,
			Reason:      failureReason,
			Conflict:    describesLinkConflict(failureReason),
		}
	}

	return &InstallFailedError{
		PackageName: packageName,
		Reason:      fmt.Sprintf(executionFailureReasonTemplate, executionError),
	}
}

func describesLinkConflict(failureReason string) bool {
	loweredReason := strings.ToLower(failureReason)
	for _, signature := range linkConflictSignatures {
		if strings.Contains(loweredReason, signature) {
			return true
		}
	}
	return false
}

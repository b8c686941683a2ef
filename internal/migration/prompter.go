package migration

import (
	"bufio"
	"io"
	"strings"
)

// Decision captures an interactive response to a migration prompt.
type Decision int

// Supported interactive decisions.
const (
	DecisionNo Decision = iota
	DecisionYes
	DecisionAll
	DecisionQuit
)

// PlanPrompter asks the operator whether to migrate a package.
type PlanPrompter interface {
	Decide(prompt string) (Decision, error)
}

// IOPlanPrompter reads migration decisions from an io.Reader.
type IOPlanPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOPlanPrompter constructs a prompter from the provided reader and writer.
func NewIOPlanPrompter(input io.Reader, output io.Writer) *IOPlanPrompter {
	return &IOPlanPrompter{reader: bufio.NewReader(input), writer: output}
}

// Decide writes the prompt and interprets y/yes, a/all, and q/quit responses.
// Anything else declines the package.
func (prompter *IOPlanPrompter) Decide(prompt string) (Decision, error) {
	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, prompt); writeError != nil {
			return DecisionNo, writeError
		}
	}

	response, readError := prompter.reader.ReadString('\n')
	if readError != nil && readError != io.EOF {
		return DecisionNo, readError
	}

	trimmedResponse := strings.TrimSpace(strings.ToLower(response))
	switch trimmedResponse {
	case "y", "yes":
		return DecisionYes, nil
	case "a", "all":
		return DecisionAll, nil
	case "q", "quit":
		return DecisionQuit, nil
	default:
		return DecisionNo, nil
	}
}

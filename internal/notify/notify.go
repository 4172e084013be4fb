package notify

import (
	"os/exec"
	"path/filepath"
	"strings"
)

// Urgency levels for notifications
type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyCritical Urgency = "critical"
)

const appName = "Audio Norms"

// Send sends a desktop notification using notify-send
func Send(title, body string, urgency Urgency, icon string) error {
	return exec.Command("notify-send", Args(title, body, urgency, icon)...).Run()
}

// Args builds the notify-send argument list.
func Args(title, body string, urgency Urgency, icon string) []string {
	args := []string{"--app-name=" + appName}
	if urgency != "" {
		args = append(args, "--urgency="+string(urgency))
	}
	if icon != "" {
		args = append(args, "--icon="+icon)
	}
	return append(args, title, body)
}

// JobComplete notifies that every stage for input finished. outputs are the
// files the job wrote.
func JobComplete(input string, outputs []string) error {
	title, body := completeMessage(input, outputs)
	return Send(title, body, UrgencyNormal, "audio-x-generic")
}

// JobFailed notifies that a stage for input failed
func JobFailed(input string, err error) error {
	title, body := failedMessage(input, err)
	return Send(title, body, UrgencyCritical, "dialog-error")
}

func completeMessage(input string, outputs []string) (string, string) {
	body := filepath.Base(input) + " processed"
	if len(outputs) > 0 {
		names := make([]string, len(outputs))
		for i, o := range outputs {
			names[i] = filepath.Base(o)
		}
		body += ": " + strings.Join(names, ", ")
	}
	return appName, body
}

func failedMessage(input string, err error) (string, string) {
	return appName + " failed", filepath.Base(input) + ": " + err.Error()
}

//go:build darwin

package platform

import (
	"fmt"
	"os/exec"
)

// Notify displays a banner through macOS Notification Center. osascript has
// no icon parameter, so the preview image is dropped here; critical
// notifications add an alert sound instead.
func Notify(title, body string, opts Options) error {
	script := fmt.Sprintf("display notification %q with title %q", body, title)
	if opts.Urgency == UrgencyCritical {
		script += ` sound name "Basso"`
	}
	return exec.Command("osascript", "-e", script).Run()
}

//go:build windows

package platform

import (
	"fmt"
	"os/exec"
	"strings"
)

const toastAppID = "InkDeck"

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Notify displays a toast through the Windows notification center. When a
// preview image is available the image-and-text template is used so the
// generated picture shows inline.
func Notify(title, body string, opts Options) error {
	template := "ToastText02"
	imageLine := ""
	if icon := strings.TrimSpace(opts.IconPath); icon != "" {
		template = "ToastImageAndText02"
		imageLine = fmt.Sprintf(
			`$image = $template.GetElementsByTagName("image").Item(0); $image.SetAttribute("src", %s); `,
			psQuote(icon))
	}
	script := fmt.Sprintf(`[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType=Windows Runtime] > $null; `+
		`$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::%s); `+
		`$texts = $template.GetElementsByTagName("text"); `+
		`$texts.Item(0).AppendChild($template.CreateTextNode(%s)) > $null; `+
		`$texts.Item(1).AppendChild($template.CreateTextNode(%s)) > $null; `,
		template, psQuote(title), psQuote(body)) +
		imageLine +
		fmt.Sprintf(`$toast = [Windows.UI.Notifications.ToastNotification]::new($template); `+
			`$notifier = [Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier(%s); `+
			`$notifier.Show($toast);`, psQuote(toastAppID))
	return exec.Command("powershell.exe", "-NoProfile", "-Command", script).Run()
}

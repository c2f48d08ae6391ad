package email

import (
	"fmt"
	"strings"
)

// LoginLink builds the passwordless sign-in email.
func LoginLink(to, clientURL, token string) Message {
	link := fmt.Sprintf("%s/auth/verify/%s", strings.TrimRight(clientURL, "/"), token)
	body := fmt.Sprintf(`## Sign in to Repair Desk

Use the link below to sign in. It can only be used once.

[Sign in](%s)

Or paste this address into your browser:

%s

If you did not ask for this email you can ignore it.
`, link, link)
	return Message{To: to, Subject: "Your sign-in link", Body: body}
}

// Notification wraps a persisted notification for email delivery. requestURL
// may be empty when the notification is not tied to a repair request.
func Notification(to, title, message, requestURL string) Message {
	var b strings.Builder
	b.WriteString("## ")
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(message)
	b.WriteString("\n")
	if requestURL != "" {
		fmt.Fprintf(&b, "\n[Open repair request](%s)\n", requestURL)
	}
	return Message{To: to, Subject: title, Body: b.String()}
}

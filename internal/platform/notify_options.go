package platform

// Urgency maps to the host notification system's priority levels where the
// platform supports them.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification
	// center should display alongside the notification. Generation results
	// pass the rendered preview here.
	IconPath string
	// Urgency hints the priority. Failed generations use UrgencyCritical.
	Urgency Urgency
	// TimeoutMs is the display duration. Zero falls back to 5000.
	TimeoutMs int
}

func (o Options) timeout() int {
	if o.TimeoutMs <= 0 {
		return 5000
	}
	return o.TimeoutMs
}

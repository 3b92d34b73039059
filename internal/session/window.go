package session

// WindowContext describes the focused window at the moment recording
// started, plus whatever a process-tree inspection added to it.
type WindowContext struct {
	AppID       string
	WindowClass string
	Title       string
	PID         int
	Agent       string
	WorkingDir  string
	Context     string
}

// Empty reports whether no identifying field carries any information.
func (w WindowContext) Empty() bool {
	return w.AppID == "" && w.WindowClass == "" && w.Title == "" && w.PID == 0
}

// AppName returns the app id if set, else the window class, mirroring the
// preference order used to compose Context and to recognize terminals.
func (w WindowContext) AppName() string {
	if w.AppID != "" {
		return w.AppID
	}
	return w.WindowClass
}

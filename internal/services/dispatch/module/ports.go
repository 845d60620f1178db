package module

import dom "papertrail/internal/services/dispatch/domain"

// Ports holds the ports exposed by the dispatch module
type Ports struct {
	Sender dom.SenderPort
}

package foundry

import "github.com/animatlabs/workflowforge/wfevents"

// recorderObserver implements wfevents.OperationLifecycle, recording only
// OperationStarted via the supplied callback, for use in tests that only
// care about one event kind.
type recorderObserver struct {
	onStarted func(name string)
}

func (r recorderObserver) OnOperationStarted(e wfevents.OperationStarted) {
	if r.onStarted != nil {
		r.onStarted(e.OperationName)
	}
}
func (recorderObserver) OnOperationCompleted(wfevents.OperationCompleted) {}
func (recorderObserver) OnOperationFailed(wfevents.OperationFailed)       {}

func eventStarted(name string) wfevents.OperationStarted {
	return wfevents.OperationStarted{OperationName: name}
}

package resilience

import (
	"github.com/animatlabs/workflowforge/wflog"
)

// fakeContext is a minimal operation.Context used across this package's
// tests; none of the wrappers under test read or write context state.
type fakeContext struct{ logger wflog.Logger }

func newFakeContext() *fakeContext { return &fakeContext{logger: wflog.NoOp()} }

func (f *fakeContext) ExecutionID() string            { return "exec-1" }
func (f *fakeContext) Get(string) (any, bool)          { return nil, false }
func (f *fakeContext) GetRequired(string) (any, error) { return nil, nil }
func (f *fakeContext) Set(string, any) error           { return nil }
func (f *fakeContext) Logger() wflog.Logger            { return f.logger }
func (f *fakeContext) ServiceLocator() any             { return nil }

package pipeline

// OnRecordError is invoked by executors and the VALIDATE step for every
// record-level failure. It must not block the run; callers that need to
// persist errors should buffer and flush asynchronously.
type OnRecordError func(stepKey, message string, rec map[string]any)

// OnCancelRequested is polled by the scheduler between steps (linear mode)
// and between ready-set pops (graph mode). Cancellation is cooperative: the
// in-flight step always finishes.
type OnCancelRequested func() bool

// StepLogCallback bundles the observability hooks a caller may supply to
// watch a run without altering its outcome. Any hook may be nil.
type StepLogCallback struct {
	OnStepStart        func(stepKey string)
	OnStepComplete      func(stepKey string, result ExecutionResult)
	OnStepFailed        func(stepKey string, err error)
	OnExtractData       func(stepKey string, records int)
	OnLoadData          func(stepKey string, result ExecutionResult)
	OnTransformMapping  func(stepKey string, before, after int)
}

func (c *StepLogCallback) stepStart(key string) {
	if c != nil && c.OnStepStart != nil {
		c.OnStepStart(key)
	}
}

func (c *StepLogCallback) stepComplete(key string, result ExecutionResult) {
	if c != nil && c.OnStepComplete != nil {
		c.OnStepComplete(key, result)
	}
}

func (c *StepLogCallback) stepFailed(key string, err error) {
	if c != nil && c.OnStepFailed != nil {
		c.OnStepFailed(key, err)
	}
}

func (c *StepLogCallback) extractData(key string, n int) {
	if c != nil && c.OnExtractData != nil {
		c.OnExtractData(key, n)
	}
}

func (c *StepLogCallback) loadData(key string, result ExecutionResult) {
	if c != nil && c.OnLoadData != nil {
		c.OnLoadData(key, result)
	}
}

func (c *StepLogCallback) transformMapping(key string, before, after int) {
	if c != nil && c.OnTransformMapping != nil {
		c.OnTransformMapping(key, before, after)
	}
}

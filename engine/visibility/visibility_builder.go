package visibility

// OrchestratorBuilderOption is a functional option for configuring an Orchestrator.
// Use the With* functions to create options.
type OrchestratorBuilderOption func(o *orchestrator)

// WithWorkers sets how many goroutines light and cubemap cameras are culled on.
// Zero culls every camera on the calling goroutine.
//
// Parameters:
//   - n: the worker count, clamped to 0 when negative
//
// Returns:
//   - OrchestratorBuilderOption: option function to apply
func WithWorkers(n int) OrchestratorBuilderOption {
	return func(o *orchestrator) {
		o.workers = max(n, 0)
	}
}

// WithConsumer sets the callback that receives each camera's queue before reset.
//
// Parameters:
//   - c: the consumer
//
// Returns:
//   - OrchestratorBuilderOption: option function to apply
func WithConsumer(c Consumer) OrchestratorBuilderOption {
	return func(o *orchestrator) {
		o.consumer = c
	}
}

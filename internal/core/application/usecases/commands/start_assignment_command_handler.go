package commands

import (
	"context"
)

// StartAssignmentCommandHandler starts dispatch for a waiting order.
type StartAssignmentCommandHandler struct {
	orchestrator *AssignmentOrchestrator
}

func NewStartAssignmentCommandHandler(orchestrator *AssignmentOrchestrator) StartAssignmentCommandHandler {
	return StartAssignmentCommandHandler{orchestrator: orchestrator}
}

// Handle pushes the first batch and returns it. Calling it again on an order that is
// already assigned or accepted fails with INVALID_STATE and writes nothing.
func (h StartAssignmentCommandHandler) Handle(ctx context.Context, cmd StartAssignmentCommand) (Batch, error) {
	if err := cmd.Validate(); err != nil {
		return Batch{}, err
	}

	return h.orchestrator.Start(ctx, cmd.OrderID(), cmd.Options())
}

package command

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/google/uuid"
	"time"
)

// BackendCallback is the authenticated payload of an inbound backend webhook.
// GenerationID comes from the callback URL path; JobID from the payload. Either
// correlates the record.
type BackendCallback struct {
	GenerationID string `json:"-"`
	JobID        string `json:"job_id"`
	State        string `json:"state"`
	Error        string `json:"error,omitempty"`
}

// HandleBackendCallback settles a webhook-mode generation from its backend
// callback. Handlers are idempotent by job id: a duplicate callback after the
// terminal transition is a no-op.
func (uc *UseCase) HandleBackendCallback(ctx context.Context, callback BackendCallback) error {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.handle_backend_callback")
	defer span.End()

	var (
		gen *mmodel.Generation
		err error
	)

	if callback.JobID != "" {
		gen, err = uc.GenerationRepo.FindByBackendJobID(ctx, callback.JobID)
	}

	if gen == nil && callback.GenerationID != "" {
		if id, parseErr := uuid.Parse(callback.GenerationID); parseErr == nil {
			gen, err = uc.GenerationRepo.Find(ctx, id)
		}
	}

	if err != nil || gen == nil {
		if err == nil {
			err = pkg.ValidateBusinessError(cn.ErrEntityNotFound, "Generation")
		}

		mopentelemetry.HandleSpanError(&span, "Failed to correlate backend job", err)

		return err
	}

	if callback.JobID == "" && gen.BackendJobID != nil {
		callback.JobID = *gen.BackendJobID
	}

	if cn.IsTerminalStatus(gen.Status) {
		logger.Infof("Duplicate callback for job %s ignored: generation %s already %s",
			callback.JobID, gen.ID, gen.Status)

		return nil
	}

	tool, err := uc.Registry.Get(gen.ToolID)
	if err != nil {
		return err
	}

	if callback.State != "completed" && callback.State != "success" {
		_, err := uc.SettleGeneration(ctx, gen.ID, mmodel.TerminalOutcome{
			Status: cn.StatusFailed,
			Error: &mmodel.GenerationError{
				Code:    cn.ErrBackendError.Error(),
				Message: callback.Error,
			},
		})

		return err
	}

	client, err := uc.backend(tool)
	if err != nil {
		return err
	}

	// The callback only announces completion; the authoritative result is fetched
	// from the backend.
	outputs, err := client.Result(ctx, callback.JobID)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to fetch job result", err)

		_, settleErr := uc.SettleGeneration(ctx, gen.ID, mmodel.TerminalOutcome{
			Status: cn.StatusFailed,
			Error:  classifyBackendError(err),
		})
		if settleErr != nil {
			return settleErr
		}

		return err
	}

	if len(outputs) == 0 && !tool.EmptyOutputOK {
		_, err := uc.SettleGeneration(ctx, gen.ID, mmodel.TerminalOutcome{
			Status: cn.StatusFailed,
			Error: &mmodel.GenerationError{
				Code:    cn.ErrBackendError.Error(),
				Message: "backend reported success without outputs",
			},
		})

		return err
	}

	runtime := 0.0
	if gen.StartedAt != nil {
		runtime = time.Since(*gen.StartedAt).Seconds()
	}

	_, err = uc.SettleGeneration(ctx, gen.ID, mmodel.TerminalOutcome{
		Status:         cn.StatusCompleted,
		Outputs:        outputs,
		ChargedCredits: uc.actualCost(tool, gen, runtime),
		RuntimeSeconds: runtime,
	})

	return err
}

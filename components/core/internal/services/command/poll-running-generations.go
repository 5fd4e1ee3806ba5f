package command

import (
	"context"
	"time"

	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/http/out"
	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mretry"
)

const pollBatchSize = 100

// PollRunningGenerations sweeps running poll-mode records once. Each record is
// polled on a tool-specific, jittered exponential schedule bounded by the tool's
// soft timeout; a record past its hard deadline fails with backend_timeout and its
// reserve is released.
func (uc *UseCase) PollRunningGenerations(ctx context.Context) error {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.poll_running_generations")
	defer span.End()

	running, err := uc.GenerationRepo.ListRunningByMode(ctx, cn.ModePoll, pollBatchSize)
	if err != nil {
		return err
	}

	now := time.Now()

	for _, gen := range running {
		if err := uc.pollOne(ctx, gen, now); err != nil {
			logger.Errorf("Poll of generation %s failed: %v", gen.ID, err)
		}
	}

	return nil
}

func (uc *UseCase) pollOne(ctx context.Context, gen *mmodel.Generation, now time.Time) error {
	tool, err := uc.Registry.Get(gen.ToolID)
	if err != nil {
		return err
	}

	started := gen.CreatedAt
	if gen.StartedAt != nil {
		started = *gen.StartedAt
	}

	// Hard deadline first: a backend that never completes fails exactly at the
	// declared ceiling, not before.
	if now.Sub(started) >= time.Duration(tool.HardTimeoutSeconds)*time.Second {
		_, err := uc.SettleGeneration(ctx, gen.ID, mmodel.TerminalOutcome{
			Status: cn.StatusFailed,
			Error: &mmodel.GenerationError{
				Code:    cn.ErrBackendTimeout.Error(),
				Message: cn.ReasonBackendTimeout,
			},
		})

		return err
	}

	if !uc.pollDue(tool, gen, now) {
		return nil
	}

	client, err := uc.backend(tool)
	if err != nil {
		return err
	}

	if gen.BackendJobID == nil {
		_, err := uc.SettleGeneration(ctx, gen.ID, mmodel.TerminalOutcome{
			Status: cn.StatusFailed,
			Error: &mmodel.GenerationError{
				Code:    cn.ErrBackendError.Error(),
				Message: "running poll-mode generation carries no backend job id",
			},
		})

		return err
	}

	status, err := client.Status(ctx, *gen.BackendJobID)
	if err != nil {
		// Transient poll failures only advance the backoff schedule.
		return uc.GenerationRepo.TouchPoll(ctx, gen.ID, gen.PollAttempts+1, now)
	}

	switch status.State {
	case out.JobCompleted:
		if len(status.Outputs) == 0 && !tool.EmptyOutputOK {
			_, err := uc.SettleGeneration(ctx, gen.ID, mmodel.TerminalOutcome{
				Status: cn.StatusFailed,
				Error: &mmodel.GenerationError{
					Code:    cn.ErrBackendError.Error(),
					Message: "backend reported success without outputs",
				},
			})

			return err
		}

		runtime := now.Sub(started).Seconds()

		_, err := uc.SettleGeneration(ctx, gen.ID, mmodel.TerminalOutcome{
			Status:         cn.StatusCompleted,
			Outputs:        status.Outputs,
			ChargedCredits: uc.actualCost(tool, gen, runtime),
			RuntimeSeconds: runtime,
		})

		return err
	case out.JobFailed:
		_, err := uc.SettleGeneration(ctx, gen.ID, mmodel.TerminalOutcome{
			Status: cn.StatusFailed,
			Error: &mmodel.GenerationError{
				Code:    cn.ErrBackendError.Error(),
				Message: status.Error,
			},
		})

		return err
	default:
		return uc.GenerationRepo.TouchPoll(ctx, gen.ID, gen.PollAttempts+1, now)
	}
}

// pollDue applies the tool-specific jittered exponential backoff: attempt N waits
// Backoff(N) since the last poll, with the ceiling at the tool's soft timeout.
func (uc *UseCase) pollDue(tool *mmodel.Tool, gen *mmodel.Generation, now time.Time) bool {
	if gen.LastPolledAt == nil {
		return true
	}

	schedule := mretry.Config{
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     time.Duration(tool.SoftTimeoutSeconds) * time.Second,
		JitterFactor:   mretry.DefaultJitterFactor,
	}

	return now.Sub(*gen.LastPolledAt) >= schedule.Backoff(gen.PollAttempts)
}

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
	"github.com/ternarybob/loquor/internal/services/transform"
)

// Pipeline runs one job through the four sequential stages: transcription,
// retrieval, response building, synthesis. Every stage persists its artifact
// before the next stage starts, so a failed job keeps everything written up
// to the failing stage. Jobs are independent; the pipeline holds no state
// between runs.
type Pipeline struct {
	store       interfaces.ArtifactStore
	transcriber interfaces.Transcriber
	retriever   interfaces.Retriever
	builder     *ResponseBuilder
	synthesizer interfaces.Synthesizer
	defaultTopK int
	logger      arbor.ILogger
}

// NewPipeline wires the pipeline from its stage services
func NewPipeline(
	store interfaces.ArtifactStore,
	transcriber interfaces.Transcriber,
	retriever interfaces.Retriever,
	builder *ResponseBuilder,
	synthesizer interfaces.Synthesizer,
	defaultTopK int,
	logger arbor.ILogger,
) *Pipeline {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &Pipeline{
		store:       store,
		transcriber: transcriber,
		retriever:   retriever,
		builder:     builder,
		synthesizer: synthesizer,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
}

// RunFromAudio executes the full pipeline for an uploaded audio clip
func (p *Pipeline) RunFromAudio(ctx context.Context, audio []byte, filename, voicePrompt string, topK int) (*models.PipelineResult, error) {
	job, err := p.store.CreateJob("voice")
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return p.runAudioJob(ctx, job.ID, audio, filename, voicePrompt, topK)
}

// SubmitAudio creates the job and runs the pipeline in the background,
// returning the job ID immediately so callers can poll status.
func (p *Pipeline) SubmitAudio(audio []byte, filename, voicePrompt string, topK int) (string, error) {
	job, err := p.store.CreateJob("voice")
	if err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}

	go func() {
		// Detached from the request context: the submitter is not
		// waiting for the result
		if _, err := p.runAudioJob(context.Background(), job.ID, audio, filename, voicePrompt, topK); err != nil {
			p.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Background pipeline run failed")
		}
	}()

	return job.ID, nil
}

func (p *Pipeline) runAudioJob(ctx context.Context, jobID string, audio []byte, filename, voicePrompt string, topK int) (*models.PipelineResult, error) {
	overallStart := time.Now()

	if len(audio) == 0 {
		return nil, p.fail(jobID, common.ErrEmptyInput)
	}

	// Input is persisted before any external call so failed later stages
	// still leave it recoverable
	if _, err := p.store.SaveBytes(jobID, models.ArtifactInputAudio, audio); err != nil {
		return nil, p.fail(jobID, err)
	}
	if err := p.store.UpdateJob(jobID, map[string]any{
		"status":   string(models.JobStatusProcessing),
		"filename": filename,
	}); err != nil {
		return nil, p.fail(jobID, err)
	}

	sttStart := time.Now()
	payload, err := p.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		return nil, p.fail(jobID, fmt.Errorf("transcription failed: %w", err))
	}
	transcript := strings.TrimSpace(payload.Text)
	if transcript == "" {
		// Audio jobs require a non-empty transcript regardless of the
		// gateway's own substitution rules
		return nil, p.fail(jobID, common.ErrEmptyTranscript)
	}
	sttMs := time.Since(sttStart).Milliseconds()

	// The payload keeps the raw provider response for debugging
	if _, err := p.store.SaveJSON(jobID, models.ArtifactTranscript, payload); err != nil {
		return nil, p.fail(jobID, err)
	}

	return p.finish(ctx, jobID, transcript, voicePrompt, topK, sttMs, overallStart)
}

// RunFromText executes the pipeline for a typed question, skipping
// transcription entirely (stt_ms is fixed at 0).
func (p *Pipeline) RunFromText(ctx context.Context, text, voicePrompt string, topK int) (*models.PipelineResult, error) {
	overallStart := time.Now()

	job, err := p.store.CreateJob("text")
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	transcript := strings.TrimSpace(text)
	if transcript == "" {
		return nil, p.fail(job.ID, common.ErrEmptyInput)
	}

	if err := p.store.UpdateJob(job.ID, map[string]any{
		"status": string(models.JobStatusProcessing),
	}); err != nil {
		return nil, p.fail(job.ID, err)
	}

	if _, err := p.store.SaveJSON(job.ID, models.ArtifactTranscript, models.TranscriptPayload{
		Text:   transcript,
		Source: "text",
	}); err != nil {
		return nil, p.fail(job.ID, err)
	}

	return p.finish(ctx, job.ID, transcript, voicePrompt, topK, 0, overallStart)
}

// finish runs the shared retrieval, response and synthesis stages
func (p *Pipeline) finish(ctx context.Context, jobID, transcript, voicePrompt string, topK int, sttMs int64, overallStart time.Time) (*models.PipelineResult, error) {
	if topK <= 0 {
		topK = p.defaultTopK
	}

	kbStart := time.Now()
	raw, passages, err := p.retriever.Search(ctx, transcript, topK)
	if err != nil {
		return nil, p.fail(jobID, fmt.Errorf("retrieval failed: %w", err))
	}
	kbMs := time.Since(kbStart).Milliseconds()

	if _, err := p.store.SaveJSON(jobID, models.ArtifactKB, models.KBPayload{
		Raw:        raw,
		Normalized: passages,
	}); err != nil {
		return nil, p.fail(jobID, err)
	}

	llmStart := time.Now()
	answer, citations, mode := p.builder.Build(ctx, transcript, passages)
	llmMs := time.Since(llmStart).Milliseconds()

	if _, err := p.store.SaveJSON(jobID, models.ArtifactResponse, models.ResponsePayload{
		Answer:    answer,
		Citations: citations,
	}); err != nil {
		return nil, p.fail(jobID, err)
	}

	ttsStart := time.Now()
	speakText := transform.Speakable(answer)
	if speakText == "" {
		speakText = answer
	}
	audioOut, err := p.synthesizer.Synthesize(ctx, speakText, voicePrompt)
	if err != nil {
		return nil, p.fail(jobID, fmt.Errorf("synthesis failed: %w", err))
	}
	ttsMs := time.Since(ttsStart).Milliseconds()

	audioPath, err := p.store.SaveBytes(jobID, models.ArtifactOutput, audioOut)
	if err != nil {
		return nil, p.fail(jobID, err)
	}

	timings := map[string]int64{
		"stt_ms":   sttMs,
		"kb_ms":    kbMs,
		"llm_ms":   llmMs,
		"tts_ms":   ttsMs,
		"total_ms": time.Since(overallStart).Milliseconds(),
	}
	if _, err := p.store.SaveJSON(jobID, models.ArtifactTimings, timings); err != nil {
		return nil, p.fail(jobID, err)
	}

	if err := p.store.AppendLog(jobID, fmt.Sprintf(
		"job_id=%s stt_ms=%d kb_ms=%d llm_ms=%d tts_ms=%d total_ms=%d",
		jobID, timings["stt_ms"], timings["kb_ms"], timings["llm_ms"], timings["tts_ms"], timings["total_ms"],
	)); err != nil {
		return nil, p.fail(jobID, err)
	}

	if err := p.store.UpdateJob(jobID, map[string]any{
		"status":         string(models.JobStatusCompleted),
		"transcript_len": len(transcript),
		"response_mode":  mode,
	}); err != nil {
		return nil, p.fail(jobID, err)
	}

	p.logger.Info().
		Str("job_id", jobID).
		Str("mode", mode).
		Int64("total_ms", timings["total_ms"]).
		Msg("Pipeline run complete")

	return &models.PipelineResult{
		JobID:        jobID,
		Transcript:   transcript,
		ResponseText: answer,
		Citations:    citations,
		AudioPath:    audioPath,
		Timings:      timings,
	}, nil
}

// ReadOutputAudio returns the stored output.wav for a finished job
func (p *Pipeline) ReadOutputAudio(jobID string) ([]byte, error) {
	return p.store.ReadBytes(jobID, models.ArtifactOutput)
}

// fail marks the job failed with the error string attached and returns err
func (p *Pipeline) fail(jobID string, err error) error {
	if updateErr := p.store.UpdateJob(jobID, map[string]any{
		"status": string(models.JobStatusFailed),
		"error":  err.Error(),
	}); updateErr != nil {
		p.logger.Warn().Err(updateErr).Str("job_id", jobID).Msg("Failed to record job failure")
	}
	p.logger.Error().Err(err).Str("job_id", jobID).Msg("Pipeline run failed")
	return err
}

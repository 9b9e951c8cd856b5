package session

import (
	"context"
	"fmt"

	"github.com/spigell/interview-drill/internal/disclosure"
	"github.com/spigell/interview-drill/internal/evaluation"
	"github.com/spigell/interview-drill/internal/questions"
	"github.com/spigell/interview-drill/internal/utils"
	"go.uber.org/zap"
)

const (
	opFetchQuestions = "fetch_questions"
	opSubmitAnswers  = "submit_answers"

	maxLogLength = 200
)

// Run fetches the questions and drives the session until it is done or ctx
// is cancelled. Cancelling ctx stops every timer and the dictation stream.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	defer s.shutdown()

	s.logger.Info("session started",
		zap.Stringer("activation", s.timer.Policy()),
		zap.Int("countdown_seconds", s.cfg.CountdownSeconds),
	)

	s.fetch()
	s.publish()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session stopped", zap.Stringer("state", s.state), zap.Error(ctx.Err()))
			return ctx.Err()
		case env := <-s.inbox:
			err := env.fn()
			s.publish()
			if env.reply != nil {
				env.reply <- err
			}
		case <-tickC(s.revealTick):
			s.onRevealTick()
			s.publish()
		case <-tickC(s.timerTick):
			s.onTimerTick()
			s.publish()
		}

		if s.state == Done {
			s.logger.Info("session finished", zap.Int("questions", len(s.questions)))
			return nil
		}
	}
}

func (s *Session) shutdown() {
	s.once.Do(func() {
		s.stopReveal()
		s.stopTimer()
		s.dictation.Stop()
		s.cancel()
		close(s.done)
		close(s.updates)
	})
}

func (s *Session) publish() {
	snap := s.snapshot()
	s.last.Store(&snap)

	select {
	case s.updates <- snap:
		return
	default:
	}

	// Drop the stale snapshot the reader has not picked up yet.
	select {
	case <-s.updates:
	default:
	}
	s.updates <- snap
}

func (s *Session) setState(next State) {
	if s.state == next {
		return
	}

	s.logger.Debug("state changed",
		zap.Stringer("from", s.state),
		zap.Stringer("to", next),
		zap.Int("question_index", s.index),
	)
	s.state = next
}

func (s *Session) fetch() {
	s.fetching = true
	s.err = nil
	release := s.deps.Loading.Acquire(opFetchQuestions)

	go func() {
		raw, err := s.fetchQuestions(release)
		var prepared []string
		if err == nil {
			prepared, err = questions.Prepare(raw, s.logger)
		}

		s.post(func() { s.onQuestions(prepared, err) })
	}()
}

func (s *Session) fetchQuestions(release func()) (raw []string, err error) {
	defer release()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("question backend panicked: %v", r)
		}
	}()

	raw, err = s.deps.Backend.Questions(s.ctx, s.cfg.ResumeID)
	if err != nil {
		return nil, fmt.Errorf("fetching questions: %w", err)
	}
	return raw, nil
}

func (s *Session) onQuestions(prepared []string, err error) {
	s.fetching = false
	if s.state != Loading {
		return
	}

	if err != nil {
		s.err = err
		s.logger.Error("questions are not available", zap.Error(err))
		return
	}

	s.questions = prepared
	s.answers = make([]string, len(prepared))
	s.index = 0

	s.logger.Info("questions loaded", zap.Int("count", len(prepared)))

	s.present()
}

// present resets every per-question resource and starts revealing the
// question at the current index.
func (s *Session) present() {
	s.stopReveal()
	s.stopTimer()
	s.buffer.Reset()
	s.timer.Reset()

	s.reveal = disclosure.New(s.questions[s.index])
	s.frame = s.reveal.Current()
	s.revealTick = s.deps.Clock.NewTicker(s.cfg.DisclosureInterval)
	s.setState(Presenting)

	s.logger.Debug("presenting question",
		zap.Int("question_index", s.index),
		zap.String("question_preview", utils.TruncateForLog(s.questions[s.index], maxLogLength)),
	)
}

func (s *Session) onRevealTick() {
	if s.state != Presenting || s.reveal == nil {
		return
	}

	frame, _ := s.reveal.Next()
	s.frame = frame
	if frame.Typing {
		return
	}

	s.stopReveal()
	s.buffer.Unlock()
	s.setState(Answering)

	if s.timer.Arm() {
		s.startTimer()
	}
}

func (s *Session) noteFirstInput(channel string) {
	if s.timer.NoteInput() {
		s.logger.Debug("countdown started by input", zap.String("channel", channel), zap.Int("question_index", s.index))
		s.startTimer()
	}
}

func (s *Session) onDictated(text string) {
	if s.state != Answering {
		s.logger.Debug("dictated segment dropped", zap.Stringer("state", s.state))
		return
	}

	first, err := s.buffer.Dictate(text)
	if err != nil {
		return
	}
	if first {
		s.noteFirstInput("dictated")
	}
}

func (s *Session) onDictationError(err error) {
	s.notice = "Dictation stopped: " + err.Error()
	s.logger.Warn("dictation failed, continuing with typed input", zap.Error(err))
}

func (s *Session) startTimer() {
	s.stopTimer()
	s.timerTick = s.deps.Clock.NewTicker(s.cfg.TickInterval)
}

func (s *Session) onTimerTick() {
	if s.state != Answering {
		return
	}

	if !s.timer.Tick() {
		return
	}

	s.logger.Info("time expired", zap.Int("question_index", s.index))
	s.commitAndAdvance("timeout")
}

// commitAndAdvance records the answer buffer and moves to the next question
// or to submission in one step.
func (s *Session) commitAndAdvance(reason string) {
	s.setState(Transitioning)
	s.stopTimer()
	s.timer.Stop()

	s.answers[s.index] = s.buffer.Text()

	s.logger.Info("answer committed",
		zap.Int("question_index", s.index),
		zap.String("reason", reason),
		zap.Int("answer_length", len([]rune(s.answers[s.index]))),
	)

	if s.index < len(s.questions)-1 {
		s.index++
		s.present()
		return
	}

	s.dictation.Stop()
	s.setState(Submitting)
	s.submit()
}

func (s *Session) submit() {
	if s.submitting {
		return
	}

	s.submitting = true
	s.submissions++
	s.err = nil

	answers := make([]string, len(s.answers))
	copy(answers, s.answers)

	s.logger.Info("submitting answers", zap.Int("attempt", s.submissions), zap.Int("answers", len(answers)))
	release := s.deps.Loading.Acquire(opSubmitAnswers)

	go func() {
		artifact, err := s.submitAnswers(answers, release)
		s.post(func() { s.onSubmitted(artifact, err) })
	}()
}

func (s *Session) submitAnswers(answers []string, release func()) (artifact *evaluation.Artifact, err error) {
	defer release()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("submission backend panicked: %v", r)
		}
	}()

	artifact, err = s.deps.Backend.Submit(s.ctx, s.cfg.ResumeID, answers)
	if err != nil {
		return nil, fmt.Errorf("submitting answers: %w", err)
	}
	return artifact, nil
}

func (s *Session) onSubmitted(artifact *evaluation.Artifact, err error) {
	s.submitting = false
	if s.state != Submitting {
		return
	}

	if err != nil {
		s.err = err
		s.logger.Error("submission failed, waiting for retry", zap.Error(err))
		return
	}

	summary := evaluation.Summarize(artifact)
	s.summary = &summary

	s.logger.Info("evaluation received",
		zap.Int("overall_score", summary.OverallScore),
		zap.Int("technical_score", summary.TechnicalScore),
		zap.Int("communication_score", summary.CommunicationScore),
		zap.Int("cultural_fit_score", summary.CulturalFitScore),
		zap.String("evaluation_preview", utils.TruncateForLog(summary.FullEvaluation, maxLogLength)),
	)

	if s.deps.Dashboard != nil {
		result := Result{
			SessionID: s.id,
			ResumeID:  s.cfg.ResumeID,
			Questions: append([]string(nil), s.questions...),
			Answers:   append([]string(nil), s.answers...),
			Summary:   summary,
		}
		if err := s.deps.Dashboard.Show(s.ctx, result); err != nil {
			s.logger.Warn("dashboard handoff failed", zap.Error(err))
		}
	}

	s.setState(Done)
}

func (s *Session) stopReveal() {
	if s.revealTick != nil {
		s.revealTick.Stop()
		s.revealTick = nil
	}
}

func (s *Session) stopTimer() {
	if s.timerTick != nil {
		s.timerTick.Stop()
		s.timerTick = nil
	}
}

package app

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"pdfchat/internal/model"
)

// EvaluationRecorder receives one record per answered query. Optional.
type EvaluationRecorder interface {
	Record(ctx context.Context, rec model.EvaluationRecord) error
}

type ChatService struct {
	answerer *Answerer
	weather  *WeatherWorker
	recorder EvaluationRecorder
	topK     int
	log      *logrus.Entry
}

func NewChatService(answerer *Answerer, weather *WeatherWorker, recorder EvaluationRecorder, topK int, log *logrus.Entry) *ChatService {
	return &ChatService{
		answerer: answerer,
		weather:  weather,
		recorder: recorder,
		topK:     topK,
		log:      log,
	}
}

// Respond routes query, passes every answer fragment to emit as soon as it is
// available and returns the evaluation of the full answer. Upstream failures
// are part of the answer text; only an emit error aborts.
func (s *ChatService) Respond(ctx context.Context, query string, emit func(string) error) (model.Evaluation, error) {
	if strings.TrimSpace(query) == "" {
		return model.Evaluation{}, ErrInvalidInput
	}

	action := Classify(query)
	var full strings.Builder

	switch a := action.(type) {
	case WeatherAction:
		text := s.weather.Lookup(ctx, a.City).Text()
		full.WriteString(text)
		if err := emit(text); err != nil {
			return model.Evaluation{}, err
		}
	case DocumentQueryAction:
		stream := s.answerer.Answer(ctx, a.Query, s.topK)
		defer stream.Close()
		for {
			frag, ok := stream.Next()
			if !ok {
				break
			}
			full.WriteString(frag)
			if err := emit(frag); err != nil {
				return model.Evaluation{}, err
			}
		}
	}

	answer := full.String()
	eval := Evaluate(query, answer)
	s.log.WithFields(logrus.Fields{
		"action":   action.Name(),
		"score":    eval.Score,
		"feedback": eval.Feedback,
	}).Info("query answered")

	if s.recorder != nil {
		recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()
		rec := model.EvaluationRecord{
			Query:       query,
			Action:      action.Name(),
			Score:       eval.Score,
			Feedback:    eval.Feedback,
			AnswerChars: utf8.RuneCountInString(answer),
		}
		if err := s.recorder.Record(recCtx, rec); err != nil {
			s.log.WithError(err).Warn("record evaluation failed")
		}
	}
	return eval, nil
}

// Package txrun runs contract operations for HTTP handlers and maps the
// pipeline's failure taxonomy onto the response envelope.
package txrun

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"certchain/internal/httpx"
	"certchain/internal/session"
	"certchain/internal/txpipeline"
)

// SessionSource yields the active wallet session, if any
type SessionSource interface {
	Current() *session.Session
}

// Submitter runs a request through the transaction pipeline
type Submitter interface {
	Submit(ctx context.Context, contract txpipeline.Contract, req txpipeline.Request, rep txpipeline.Reporter) (*txpipeline.Outcome, error)
}

// Journal persists runs; optional
type Journal interface {
	Reporter(operator string) txpipeline.Reporter
	Complete(ctx context.Context, out *txpipeline.Outcome) error
}

// Runner drives one operation per request
type Runner struct {
	sessions SessionSource
	pipeline Submitter
	journal  Journal
	logger   *logrus.Entry
}

// NewRunner creates a runner. journal may be nil.
func NewRunner(sessions SessionSource, pipeline Submitter, journal Journal, logger *logrus.Entry) *Runner {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Runner{
		sessions: sessions,
		pipeline: pipeline,
		journal:  journal,
		logger:   logger.WithField("component", "tx-runner"),
	}
}

// Run submits req with the current session and writes the response.
// It reports whether the operation was confirmed.
func (r *Runner) Run(c *gin.Context, req txpipeline.Request) (*txpipeline.Outcome, bool) {
	var contract txpipeline.Contract
	if s := r.sessions.Current(); s != nil && s.Binding != nil {
		contract = s.Binding
	}

	operator := c.GetString("username")
	reporters := txpipeline.MultiReporter{
		txpipeline.NewLogReporter(r.logger.WithField("operator", operator)),
	}
	if r.journal != nil {
		reporters = append(reporters, r.journal.Reporter(operator))
	}

	ctx := c.Request.Context()
	out, err := r.pipeline.Submit(ctx, contract, req, reporters)
	if r.journal != nil && out != nil {
		// The run may have outlived the request
		if jerr := r.journal.Complete(context.WithoutCancel(ctx), out); jerr != nil {
			r.logger.WithError(jerr).WithField("op", out.OperationID).Warn("Failed to complete journal entry")
		}
	}

	dto := NewOutcomeDTO(out)
	if err != nil {
		message := ""
		if out != nil {
			message = out.Message
		}
		httpx.FailErr(c, MapError(err, message).WithData(dto))
		return out, false
	}
	httpx.OKMsg(c, out.Message, dto)
	return out, true
}

// MapError converts a pipeline error into an AppError. message is the run's
// final status line and is preferred where the error text is terser.
func MapError(err error, message string) *httpx.AppError {
	var (
		verr   *txpipeline.ValidationError
		simErr *txpipeline.SimulationRevertedError
		subErr *txpipeline.SubmissionError
	)
	switch {
	case errors.As(err, &verr):
		return httpx.ErrParamInvalid(verr.Reason)
	case errors.Is(err, txpipeline.ErrWalletNotConnected):
		return httpx.ErrWalletNotConnected(err.Error())
	case errors.As(err, &simErr):
		return httpx.ErrSimulationReverted(simErr.Error(), simErr.Err)
	case errors.Is(err, txpipeline.ErrUserRejected):
		return httpx.ErrUserRejected(txpipeline.UserRejectedMessage)
	case errors.As(err, &subErr):
		if message == "" {
			message = subErr.Reason
		}
		return httpx.ErrSubmissionFailed(message, subErr.Err)
	}
	if message == "" {
		message = "Unknown error"
	}
	return httpx.ErrInternalError(message, err)
}

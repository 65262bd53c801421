package api

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
)

type retryState int

const (
	stateAttempt retryState = iota
	stateRefreshing
	stateRetry
	stateDone
)

// execute runs the 401 recovery sequence. States only move forward, so a call
// makes at most one refresh and one retry.
func (c *Client) execute(ctx context.Context, req request, opts RequestOptions) (*Envelope, error) {
	var (
		state    = stateAttempt
		handler  AuthHandler
		env      *Envelope
		err      error
		firstErr error
	)

	for state != stateDone {
		switch state {
		case stateAttempt:
			env, err = c.send(ctx, req, opts)
			handler = c.AuthHandler()
			if !recoverable(err, opts, handler) {
				state = stateDone
				continue
			}
			firstErr = err
			state = stateRefreshing

		case stateRefreshing:
			token, ok := handler.RefreshAuth(ctx)
			if ctx.Err() != nil {
				// The caller gave up; that says nothing about the session.
				env, err = nil, errors.Wrap(ctx.Err(), "[api.execute] refresh abandoned")
				state = stateDone
				continue
			}
			if !ok || token == "" {
				c.expire(ctx, handler)
				env, err = nil, firstErr
				state = stateDone
				continue
			}
			opts.Token = token
			state = stateRetry

		case stateRetry:
			env, err = c.send(ctx, req, opts)
			if IsStatus(err, http.StatusUnauthorized) {
				c.expire(ctx, handler)
			}
			state = stateDone
		}
	}
	return env, err
}

func recoverable(err error, opts RequestOptions, handler AuthHandler) bool {
	return err != nil &&
		IsStatus(err, http.StatusUnauthorized) &&
		opts.Token != "" &&
		!opts.SkipAuthRecovery &&
		handler != nil
}

func (c *Client) expire(ctx context.Context, handler AuthHandler) {
	c.logger.Info().Msg("Session could not be recovered, signing out")
	handler.ClearTokens(ctx)
	handler.OnSessionExpired(ctx)
	c.metrics.ObserveSessionExpired()
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AleutianAI/FarminAI/services/assistant"
	"github.com/AleutianAI/FarminAI/services/llm"
	"github.com/AleutianAI/FarminAI/services/orchestrator/datatypes"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Responder answers one question within a session.
type Responder interface {
	Respond(ctx context.Context, sess *assistant.Session, question, language string) assistant.Reply
}

// SessionHeader lets clients name their session outside the JSON body, for
// the rate limiter.
const SessionHeader = "X-Session-ID"

// HandleAsk answers a farming question.
//
// # Description
//
// Assigns a UUID session id when the client sends none, loads the session
// from the registry and runs the assistant. The assistant never fails, so
// every valid request gets a 200 with an answer; the outcome field tells
// clients whether it came from the model, the fallback table or the
// clarification message.
//
// # Inputs
//
//   - answerer: The assistant orchestrator.
//   - sessions: Registry the session is loaded from.
func HandleAsk(answerer Responder, sessions *assistant.SessionRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "HandleAsk")
		defer span.End()

		var req datatypes.AskRequest
		if !bind(c, span, &req) {
			return
		}
		sessionID := strings.TrimSpace(req.SessionID)
		if sessionID == "" {
			sessionID = strings.TrimSpace(c.GetHeader(SessionHeader))
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		lang := llm.NormalizeLanguage(req.Language)
		span.SetAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("language", lang),
		)

		sess := sessions.Get(ctx, sessionID)
		reply := answerer.Respond(ctx, sess, req.Question, lang)

		slog.Info("Answered question",
			"session_id", sessionID,
			"outcome", reply.Outcome,
			"attempts", reply.Attempts)
		c.Header(SessionHeader, sessionID)
		c.JSON(http.StatusOK, datatypes.AskResponse{
			SessionID: sessionID,
			Answer:    reply.Text,
			Language:  reply.Language,
			Outcome:   string(reply.Outcome),
			Attempts:  reply.Attempts,
		})
	}
}

// GetSessionHistory returns the turns of a session, oldest first.
func GetSessionHistory(sessions *assistant.SessionRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "GetSessionHistory")
		defer span.End()

		sessionID := c.Param("sessionId")
		turns := sessions.Get(ctx, sessionID).Turns()
		out := make([]datatypes.HistoryTurn, 0, len(turns))
		for _, t := range turns {
			out = append(out, datatypes.HistoryTurn{
				Role:      string(t.Role),
				Content:   t.Content,
				Timestamp: t.Timestamp,
			})
		}
		c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "turns": out})
	}
}

// DeleteSession drops a session from memory and from the history store.
func DeleteSession(sessions *assistant.SessionRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlerTracer.Start(c.Request.Context(), "DeleteSession")
		defer span.End()

		sessionID := c.Param("sessionId")
		slog.Info("Received a request to delete a session", "sessionId", sessionID)
		if err := sessions.Clear(ctx, sessionID); err != nil {
			fail(c, span, http.StatusInternalServerError, "failed to fully delete session", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "deleted_session_id": sessionID})
	}
}

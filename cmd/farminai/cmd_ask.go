// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/FarminAI/pkg/ux"
	"github.com/AleutianAI/FarminAI/services/assistant"
	"github.com/AleutianAI/FarminAI/services/detection"
	"github.com/AleutianAI/FarminAI/services/llm"
	"github.com/AleutianAI/FarminAI/services/orchestrator"
	"github.com/AleutianAI/FarminAI/services/speech"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var errNoQuestion = errors.New("ask needs a question or --audio")

// cliStack builds the assistant stack for terminal use. Storage stays in
// memory so a running server keeps exclusive use of the data directory.
func cliStack(ctx context.Context) (*orchestrator.Stack, error) {
	c := cfg
	c.Storage.Dir = ""
	return orchestrator.BuildStack(ctx, c, nil)
}

func parseLanguage(code string) (string, error) {
	lang := llm.NormalizeLanguage(code)
	if !llm.IsSupportedLanguage(lang) {
		return "", fmt.Errorf("unsupported language %q", code)
	}
	return lang, nil
}

// runAsk answers one question, typed or spoken.
func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	lang, err := parseLanguage(askLanguage)
	if err != nil {
		return err
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if askAudio != "" {
		text, err := transcribeFile(ctx, askAudio)
		if err != nil {
			return err
		}
		if speech.IsApology(text) {
			ux.Warning(text)
			return nil
		}
		ux.Muted("Heard: " + text)
		question = text
	}
	if question == "" {
		return errNoQuestion
	}

	stack, err := cliStack(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	sessionID := askSession
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	reply := answer(ctx, stack, sessionID, question, lang)
	printReply(reply)
	if askSession == "" {
		ux.Muted("session: " + sessionID)
	}
	return nil
}

// runChat reads questions line by line until EOF or /exit.
func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	lang, err := parseLanguage(chatLanguage)
	if err != nil {
		return err
	}
	stack, err := cliStack(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	sessionID := uuid.NewString()
	interactive := ux.IsInteractive()
	ux.Title(string(ux.IconSprout) + " FarminAI")
	ux.Muted("Ask about crops, livestock or the weather. /clear forgets the conversation, /exit leaves.")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		if interactive {
			fmt.Print(ux.Styles.Highlight.Render("You> "))
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "/exit", "/quit", "exit", "quit":
			return nil
		case "/clear":
			if err := stack.Sessions.Clear(ctx, sessionID); err != nil {
				ux.Warning(err.Error())
			} else {
				ux.Success("Conversation cleared")
			}
			continue
		}

		printReply(answer(ctx, stack, sessionID, line, lang))
		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

func answer(ctx context.Context, stack *orchestrator.Stack, sessionID, question, lang string) assistant.Reply {
	sess := stack.Sessions.Get(ctx, sessionID)
	var reply assistant.Reply
	_ = ux.WithSpinner("Thinking...", func() error {
		reply = stack.Assistant.Respond(ctx, sess, question, lang)
		return nil
	})
	return reply
}

func printReply(reply assistant.Reply) {
	switch ux.GetPersonality() {
	case ux.PersonalityMachine:
		ux.Info(reply.Text)
	default:
		ux.Box("FarminAI", reply.Text)
	}
	switch reply.Outcome {
	case assistant.AnswerFallback:
		ux.Muted("(answered from the offline tips table)")
	case assistant.AnswerClarification:
		ux.Muted("(the assistant could not answer; try rephrasing)")
	}
}

func transcribeFile(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(cfg.Speech.BaseURL) == "" {
		return "", errors.New("speech.base_url is not configured")
	}
	audio, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	var text string
	_ = ux.WithSpinner("Listening...", func() error {
		text = speech.NewClient(cfg.Speech).Transcribe(ctx, audio, filepath.Base(path))
		return nil
	})
	return text, nil
}

// runDetect classifies one image with the configured disease model.
func runDetect(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(cfg.Detection.BaseURL) == "" {
		return errors.New("detection.base_url is not configured")
	}
	kind, err := detection.ParseModelKind(detectKind)
	if err != nil {
		return err
	}
	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	var pred detection.Prediction
	err = ux.WithSpinner("Examining the photo...", func() error {
		var perr error
		pred, perr = detection.NewClient(cfg.Detection).Predict(cmd.Context(), image, kind)
		return perr
	})
	if err != nil {
		return err
	}
	ux.Success(pred.String())
	return nil
}

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pocketsage/pocketsage/internal/llm"
)

func chatCmd() *cobra.Command {
	var (
		stream       bool
		instructions string
	)

	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Ask the assistant about your finances",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prompt := strings.Join(args, " ")

			provider, err := createProvider()
			if err != nil {
				return err
			}
			defer provider.Close()

			modelName, err := resolveModel(provider)
			if err != nil {
				return err
			}

			req := llm.ChatRequest{
				Prompt:       prompt,
				Model:        modelName,
				Instructions: instructions,
			}

			if stream {
				req.Stream = func(chunk llm.StreamChunk) {
					if chunk.Kind == llm.ChunkOutputText {
						fmt.Print(chunk.Text)
					}
				}
			}

			resp, err := provider.ChatResponse(ctx, req)
			if err != nil {
				return err
			}

			if stream {
				fmt.Println()
			} else {
				for _, msg := range resp.Messages {
					fmt.Println(msg.Content)
				}
			}

			slog.Debug("chat complete",
				"response_id", resp.ID,
				"model", resp.Model,
				"total_tokens", resp.Usage.TotalTokens)
			return nil
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", false, "stream the response as it is generated")
	cmd.Flags().StringVar(&instructions, "instructions", "", "system instructions for the assistant")

	return cmd
}

package llm

import (
	"context"
	"errors"
	"io"
)

// GenerateStream 生成响应（流式）
func (c *OpenAIClient) GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, <-chan error) {
	chunkChan := make(chan StreamChunk, 10)
	errChan := make(chan error, 1)

	go func() {
		defer close(chunkChan)
		defer close(errChan)

		chatReq := c.buildChatRequest(req)
		chatReq.Stream = true

		stream, err := c.client.CreateChatCompletionStream(ctx, chatReq)
		if err != nil {
			errChan <- mapOpenAIError(err)
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					chunkChan <- StreamChunk{Done: true}
					return
				}
				errChan <- mapOpenAIError(err)
				return
			}

			if len(response.Choices) == 0 {
				continue
			}

			choice := response.Choices[0]

			if choice.Delta.Content != "" {
				select {
				case chunkChan <- StreamChunk{Content: choice.Delta.Content}:
				case <-ctx.Done():
					errChan <- ctx.Err()
					return
				}
			}

			if choice.FinishReason != "" {
				chunkChan <- StreamChunk{
					Done:         true,
					FinishReason: string(choice.FinishReason),
				}
				return
			}
		}
	}()

	return chunkChan, errChan
}

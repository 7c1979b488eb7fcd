package llm

// streamAccumulator folds raw streaming chunks into parsed StreamChunks and
// assembles the terminal ChatResponse once the stream finishes.
type streamAccumulator struct {
	id        string
	model     string
	content   string
	toolCalls []FunctionCall
	usage     Usage
	finished  bool
}

func newStreamAccumulator() *streamAccumulator {
	return &streamAccumulator{}
}

// ingest consumes one raw chunk and returns the parsed chunks it yields, if
// any. Chunks that only carry bookkeeping (role deltas, usage) yield nothing.
func (a *streamAccumulator) ingest(raw *chatCompletionChunk) []StreamChunk {
	if raw.ID != "" {
		a.id = raw.ID
	}
	if raw.Model != "" {
		a.model = raw.Model
	}
	if raw.Usage != nil {
		a.usage = raw.Usage.toUsage()
	}

	var chunks []StreamChunk
	for _, choice := range raw.Choices {
		if choice.Delta.Content != "" {
			a.content += choice.Delta.Content
			chunks = append(chunks, StreamChunk{
				Kind: ChunkOutputText,
				Text: choice.Delta.Content,
			})
		}

		for _, tc := range choice.Delta.ToolCalls {
			a.ingestToolCall(tc)
		}

		if choice.FinishReason != nil && *choice.FinishReason != "" {
			a.finished = true
		}
	}

	return chunks
}

// ingestToolCall merges a tool call delta into the accumulated calls.
// OpenRouter identifies deltas for the same call by index; arguments arrive
// as string fragments to concatenate.
func (a *streamAccumulator) ingestToolCall(tc wireToolCall) {
	for len(a.toolCalls) <= tc.Index {
		a.toolCalls = append(a.toolCalls, FunctionCall{})
	}

	call := &a.toolCalls[tc.Index]
	if tc.ID != "" {
		call.ID = tc.ID
	}
	if tc.Function.Name != "" {
		call.Name = tc.Function.Name
	}
	call.Arguments += tc.Function.Arguments
}

// terminal returns the response-tagged chunk, or nil if the stream never
// reached a finish reason.
func (a *streamAccumulator) terminal() *StreamChunk {
	if !a.finished {
		return nil
	}

	response := &ChatResponse{
		ID:    a.id,
		Model: a.model,
		Usage: a.usage,
	}
	if a.content != "" {
		response.Messages = []ChatMessage{{
			ID:      a.id,
			Role:    "assistant",
			Content: a.content,
		}}
	}
	for _, call := range a.toolCalls {
		if call.Name == "" {
			continue
		}
		response.FunctionRequests = append(response.FunctionRequests, call)
	}

	return &StreamChunk{Kind: ChunkResponse, Response: response}
}

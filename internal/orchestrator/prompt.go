package orchestrator

import (
	"fmt"
	"strings"

	"github.com/vidsage/vidsage/internal/classify"
)

// systemPrompt frames every request regardless of query type.
const systemPrompt = `You are an AI assistant helping users understand video content.
Your task is to analyze the video transcript and respond to user queries accurately and helpfully.`

// queryInstructions shape the response per classified intent.
var queryInstructions = map[classify.QueryType]string{
	classify.Summary:      "Provide a comprehensive summary with main points and timestamps.",
	classify.WordAnalysis: "Break down difficult words with pronunciation (Hindi/English) and meanings.",
	classify.Quiz:         "Create a quiz with 5-10 multiple choice questions based on video content.",
	classify.Translation:  "Provide translation while maintaining context and meaning.",
	classify.Explanation:  "Explain concepts in simple terms with examples.",
	classify.General:      "Answer the query based on the transcript content.",
}

// syncInstruction is appended only for models that can anchor their
// answer to playback positions.
const syncInstruction = "\n\nINCLUDE TIMESTAMPS: When referring to specific parts of the video, include timestamps in format [HH:MM:SS] so they can be synced with video playback."

// buildPrompt assembles the user-turn prompt: transcript context, the
// query, and the per-intent instructions.
func buildPrompt(contextBlock, userQuery string, queryType classify.QueryType, syncOn bool) string {
	if contextBlock == "" {
		contextBlock = "No transcript available."
	}

	instruction, ok := queryInstructions[queryType]
	if !ok {
		instruction = queryInstructions[classify.General]
	}
	if syncOn {
		instruction += syncInstruction
	}

	var b strings.Builder
	fmt.Fprintf(&b, "VIDEO TRANSCRIPT:\n%s\n\n", contextBlock)
	fmt.Fprintf(&b, "USER QUERY: %s\n\n", userQuery)
	fmt.Fprintf(&b, "SPECIAL INSTRUCTIONS FOR THIS TASK (%s):\n%s\n\n",
		strings.ToUpper(string(queryType)), instruction)
	b.WriteString(`RESPONSE FORMAT:
- Be clear and concise
- Use bullet points or numbered lists when appropriate
- Reference specific parts of the transcript when possible
- If the query is about words or phrases, provide detailed analysis

RESPONSE:`)

	return b.String()
}
